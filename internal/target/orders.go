package target

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Order is one customer order with its related records, shaped like
// the demo service's JSON so the driver sees realistic payloads.
type Order struct {
	OrderID     int           `json:"orderId" yaml:"orderId"`
	CustomerID  int           `json:"customerId" yaml:"customerId"`
	OrderDate   string        `json:"orderDate" yaml:"orderDate"`
	TotalAmount float64       `json:"totalAmount" yaml:"totalAmount"`
	Items       []OrderItem   `json:"items" yaml:"items"`
	Shipping    *ShippingInfo `json:"shippingInfo" yaml:"shippingInfo"`
}

type OrderItem struct {
	ItemID      int     `json:"itemId" yaml:"itemId"`
	OrderID     int     `json:"orderId" yaml:"orderId"`
	ProductName string  `json:"productName" yaml:"productName"`
	Quantity    int     `json:"quantity" yaml:"quantity"`
	Price       float64 `json:"price" yaml:"price"`
}

type ShippingInfo struct {
	ShippingID     int    `json:"shippingId" yaml:"shippingId"`
	OrderID        int    `json:"orderId" yaml:"orderId"`
	Address        string `json:"address" yaml:"address"`
	City           string `json:"city" yaml:"city"`
	State          string `json:"state" yaml:"state"`
	ZipCode        string `json:"zipCode" yaml:"zipCode"`
	TrackingNumber string `json:"trackingNumber" yaml:"trackingNumber"`
}

// Catalog is the simulator's read-only order data, keyed by customer.
// An unknown customer simply has no orders; the endpoints still answer
// 200 for it, the way the real service does.
type Catalog struct {
	byCustomer map[int][]Order
}

func NewCatalog(orders []Order) *Catalog {
	c := &Catalog{byCustomer: make(map[int][]Order)}
	for _, o := range orders {
		c.byCustomer[o.CustomerID] = append(c.byCustomer[o.CustomerID], o)
	}
	return c
}

// Orders returns the customer's orders in catalog order. The slice is
// shared, not copied; handlers must treat it as immutable.
func (c *Catalog) Orders(customerID int) []Order {
	return c.byCustomer[customerID]
}

func (c *Catalog) Customers() []int {
	ids := make([]int, 0, len(c.byCustomer))
	for id := range c.byCustomer {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (c *Catalog) TotalOrders() int {
	n := 0
	for _, orders := range c.byCustomer {
		n += len(orders)
	}
	return n
}

// fixturesFile is the YAML shape accepted by --fixtures.
type fixturesFile struct {
	Customers []struct {
		CustomerID int     `yaml:"customerId"`
		Orders     []Order `yaml:"orders"`
	} `yaml:"customers"`
}

// LoadFixtures reads a catalog from a YAML file. Missing orderId,
// itemId and shippingId values are assigned sequentially, and item and
// shipping back-references are filled from the owning order, so
// fixture files only need to spell out what they care about.
func LoadFixtures(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures %s: %w", path, err)
	}

	var f fixturesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	if len(f.Customers) == 0 {
		return nil, fmt.Errorf("fixtures %s: no customers defined", path)
	}

	var orders []Order
	nextOrder, nextItem, nextShipping := 1, 1, 1
	for _, cust := range f.Customers {
		if cust.CustomerID <= 0 {
			return nil, fmt.Errorf("fixtures %s: customerId must be positive, got %d", path, cust.CustomerID)
		}
		for _, o := range cust.Orders {
			o.CustomerID = cust.CustomerID
			if o.OrderID == 0 {
				o.OrderID = nextOrder
			}
			nextOrder = o.OrderID + 1

			for i := range o.Items {
				if o.Items[i].ItemID == 0 {
					o.Items[i].ItemID = nextItem
				}
				nextItem = o.Items[i].ItemID + 1
				o.Items[i].OrderID = o.OrderID
			}
			if o.Shipping != nil {
				if o.Shipping.ShippingID == 0 {
					o.Shipping.ShippingID = nextShipping
				}
				nextShipping = o.Shipping.ShippingID + 1
				o.Shipping.OrderID = o.OrderID
			}
			orders = append(orders, o)
		}
	}
	return NewCatalog(orders), nil
}
