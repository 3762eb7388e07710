package view

const pageTemplate = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{if .Error}}<div class="error" role="alert">{{.Error}}</div>
{{end}}<section class="inventory">
<h2>Inventory</h2>
{{template "inventory" .Inventory}}
</section>
<section class="cart">
<h2>Shopping Cart</h2>
{{template "cart" .Cart}}
<form method="post" action="/click"><input type="hidden" name="container" value="checkout-btn"><button name="class" value="checkout-btn" class="checkout-btn">Checkout</button></form>
</section>
</body>
</html>
{{end}}`

const inventoryTemplate = `{{define "inventory"}}<ul class="inventory__list">
{{range .}}<li id="{{.ID}}"><form method="post" action="/click"><input type="hidden" name="container" value="inventory__list"><input type="hidden" name="id" value="{{.ID}}">
<span>{{.Content}}</span>
<button name="class" value="decrement-btn" class="decrement-btn">-</button>
<span class="quantity" data-id="{{.ID}}">{{.Quantity}}</span>
<button name="class" value="increment-btn" class="increment-btn">+</button>
<button name="class" value="addToCart-btn" class="addToCart-btn">Add</button>
</form></li>
{{end}}</ul>{{end}}`

const cartTemplate = `{{define "cart"}}<ul class="cart__list">
{{range .}}<li id="{{.ID}}"><form method="post" action="/click"><input type="hidden" name="container" value="cart__list"><input type="hidden" name="id" value="{{.ID}}">
<span class="content">{{.Content}}</span>
<span class="quantity" data-id="{{.ID}}">
{{if .Editing}}<button name="class" value="decrement-btn" class="decrement-btn">-</button>{{end}}
<span class="item-amount">{{.Quantity}}</span>
{{if .Editing}}<button name="class" value="increment-btn" class="increment-btn">+</button>{{end}}
</span>
{{if .Editing}}<button name="class" value="saveItem-btn" class="saveItem-btn">Save</button>{{else}}<button name="class" value="editItem-btn" class="editItem-btn">Edit</button>
<button name="class" value="deleteItem-btn" class="deleteItem-btn">Delete</button>{{end}}
</form></li>
{{end}}</ul>{{end}}`
