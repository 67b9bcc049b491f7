package domain

type DashboardSummary struct {
	NumberOfOrders          int64 `json:"numberOfOrders"`
	PaidOrders              int64 `json:"paidOrders"`
	DeliveredOrders         int64 `json:"deliveredOrders"`
	NotPaidOrders           int64 `json:"notPaidOrders"`
	NumberOfClients         int64 `json:"numberOfClients"`
	NumberOfProductTypes    int64 `json:"numberOfProductTypes"`
	NumberOfProducts        int64 `json:"numberOfProducts"`
	ProductsWithNoInventory int64 `json:"productsWithNoInventory"`
	LowInventory            int64 `json:"lowInventory"`
	NumberOfReviews         int64 `json:"numberOfReviews"`
}

// LowInventoryThreshold is the inclusive stock level reported as low.
const LowInventoryThreshold = 10
