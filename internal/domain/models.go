// Package domain defines the persistence models for users, products, rental
// transactions, and payments. These types are mapped with GORM and are plain
// value records: state changes are computed by the transition functions in
// transitions.go and written back by the service layer.
package domain

import "time"

// ProductStatus is the availability state of a listed product.
type ProductStatus string

const (
	ProductAvailable ProductStatus = "AVAILABLE"
	ProductRented    ProductStatus = "RENTED"
	ProductHidden    ProductStatus = "HIDDEN"
)

// Valid reports whether s is a known product status.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductAvailable, ProductRented, ProductHidden:
		return true
	}
	return false
}

// TransactionStatus is a step in the rental lifecycle.
type TransactionStatus string

const (
	StatusRequested TransactionStatus = "REQUESTED"
	StatusAccepted  TransactionStatus = "ACCEPTED"
	StatusPaid      TransactionStatus = "PAID"
	StatusRented    TransactionStatus = "RENTED"
	StatusReturned  TransactionStatus = "RETURNED"
	StatusCanceled  TransactionStatus = "CANCELED"
)

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentReady     PaymentStatus = "READY"
	PaymentConfirmed PaymentStatus = "CONFIRMED"
	PaymentCanceled  PaymentStatus = "CANCELED"
)

// User is a marketplace member. Users own products and rent products from
// other users.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Username: unique login/display name.
//   - ProfileImageURL, Phone, Address, Bio: optional profile data.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID              string    `json:"id"                          gorm:"type:char(36);primaryKey"`
	Username        string    `json:"username"                    gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	ProfileImageURL string    `json:"profile_image_url,omitempty" gorm:"type:varchar(512)"`
	Phone           string    `json:"phone,omitempty"             gorm:"type:varchar(32)"`
	Address         string    `json:"address,omitempty"           gorm:"type:varchar(255)"`
	Bio             string    `json:"bio,omitempty"               gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Product is a rentable listing owned by a user.
//
// Status is AVAILABLE unless a single live transaction has started renting
// it; it is flipped only as a side effect of the rental lifecycle (or toggled
// to HIDDEN by the owner while not rented).
type Product struct {
	ID           string        `json:"id"                      gorm:"type:char(36);primaryKey"`
	OwnerID      string        `json:"owner_id"                gorm:"type:char(36);not null;index:idx_products_owner"`
	Title        string        `json:"title"                   gorm:"type:varchar(255);not null"`
	Description  string        `json:"description"             gorm:"type:text;not null"`
	Category     string        `json:"category"                gorm:"type:varchar(64);not null;index"`
	PricePerDay  int64         `json:"price_per_day"           gorm:"not null;check:price_per_day >= 0"`
	Deposit      int64         `json:"deposit"                 gorm:"not null;check:deposit >= 0"`
	Location     string        `json:"location"                gorm:"type:varchar(255);not null"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty" gorm:"type:varchar(512)"`
	Status       ProductStatus `json:"status"                  gorm:"type:varchar(16);not null;index;check:status IN ('AVAILABLE','RENTED','HIDDEN')"`
	Version      int64         `json:"-"                       gorm:"not null"`
	CreatedAt    time.Time     `json:"created_at"              gorm:"index"`
	UpdatedAt    time.Time     `json:"updated_at"`

	Owner User `json:"-" gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Transaction is a single rental engagement between a renter and the owner
// of a product. OwnerID is a snapshot of the product owner taken when the
// rental was requested. StartAt/EndAt stay nil until the rental starts.
//
// Version is bumped on every write and used for optimistic locking.
type Transaction struct {
	ID        string            `json:"id"                 gorm:"type:char(36);primaryKey"`
	ProductID string            `json:"product_id"         gorm:"type:char(36);not null;index:idx_tx_product"`
	RenterID  string            `json:"renter_id"          gorm:"type:char(36);not null;index:idx_tx_renter"`
	OwnerID   string            `json:"owner_id"           gorm:"type:char(36);not null;index:idx_tx_owner"`
	Status    TransactionStatus `json:"status"             gorm:"type:varchar(16);not null;index;check:status IN ('REQUESTED','ACCEPTED','PAID','RENTED','RETURNED','CANCELED')"`
	StartAt   *time.Time        `json:"start_at,omitempty"`
	EndAt     *time.Time        `json:"end_at,omitempty"`
	Version   int64             `json:"-"                  gorm:"not null"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	Product Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Renter  User    `json:"-" gorm:"foreignKey:RenterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Owner   User    `json:"-" gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Transaction.
func (Transaction) TableName() string { return "transactions" }

// Payment is the monetary settlement of a transaction through the external
// payment gateway. OrderID is the idempotency key shared with the gateway;
// PaymentKey is assigned by the gateway and recorded on confirmation.
// Amount is fixed when the payment is prepared and never changes.
type Payment struct {
	ID            string        `json:"id"                      gorm:"type:char(36);primaryKey"`
	OrderID       string        `json:"order_id"                gorm:"type:varchar(64);not null;uniqueIndex:ux_payments_order"`
	PaymentKey    string        `json:"payment_key,omitempty"   gorm:"type:varchar(200)"`
	Amount        int64         `json:"amount"                  gorm:"not null;check:amount >= 0"`
	Status        PaymentStatus `json:"status"                  gorm:"type:varchar(16);not null;index;check:status IN ('READY','CONFIRMED','CANCELED')"`
	TransactionID string        `json:"transaction_id"          gorm:"type:char(36);not null;index:idx_payments_tx"`
	CancelReason  string        `json:"cancel_reason,omitempty" gorm:"type:varchar(200)"`
	ConfirmedAt   *time.Time    `json:"confirmed_at,omitempty"`
	CanceledAt    *time.Time    `json:"canceled_at,omitempty"`
	Version       int64         `json:"-"                       gorm:"not null"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Transaction Transaction `json:"-" gorm:"foreignKey:TransactionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Payment.
func (Payment) TableName() string { return "payments" }
