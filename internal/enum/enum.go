package enum

// ── Configurable labels (no DB constraint) ──

const (
	MealCategoryStarter = "STARTER"
	MealCategoryMain    = "MAIN"
	MealCategorySide    = "SIDE"
	MealCategoryDessert = "DESSERT"
	MealCategoryDrink   = "DRINK"
)

// ── Stored values (CHECK constrained in DB) ──

const (
	PaymentMethodCard   = "CARD"
	PaymentMethodWallet = "WALLET"
)

const (
	DiscountTypePercentage = "PERCENTAGE"
	DiscountTypeFixed      = "FIXED_AMOUNT"
)

// ── Outbox topics ──

const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
)
