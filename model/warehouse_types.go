package model

import "time"

type ChemicalArticle struct {
	ID              string `db:"id" json:"id" yaml:"id"`
	Name            string `db:"name" json:"name" yaml:"name"`
	StockAlertValue int    `db:"stock_alert_value" json:"stockAlertValue" yaml:"stockAlertValue"`
}

type ChemicalLot struct {
	ArticleID         string `db:"article_id" json:"articleId"`
	LotNumber         string `db:"lot_number" json:"lotNumber"`
	AvailableQuantity int    `db:"available_quantity" json:"availableQuantity"`
}

// ChemicalStock is one row of the chemicals stock overview.
type ChemicalStock struct {
	ArticleID       string        `json:"articleId"`
	ArticleName     string        `json:"articleName"`
	StockAlertValue int           `json:"stockAlertValue"`
	TotalAvailable  int           `json:"totalAvailable"`
	IsBelowAlert    bool          `json:"isBelowAlert"`
	Batches         []ChemicalLot `json:"batches"`
}

// ChemicalUsage is a block during which one lot of an article was in use.
type ChemicalUsage struct {
	ID          int64      `db:"id" json:"id"`
	ArticleID   string     `db:"article_id" json:"articleId"`
	ArticleName string     `db:"article_name" json:"articleName"`
	LotNumber   string     `db:"lot_number" json:"lotNumber"`
	StartDate   time.Time  `db:"start_date" json:"startDate"`
	EndDate     *time.Time `db:"end_date" json:"endDate"`
}

type InboundLine struct {
	ID        int64  `db:"id" json:"id"`
	SessionID string `db:"session_id" json:"-"`
	ArticleID string `db:"article_id" json:"articleId"`
	LotNumber string `db:"lot_number" json:"lotNumber"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

type BatchRecord struct {
	ID               int64     `db:"id" json:"id"`
	BatchCode        string    `db:"batch_code" json:"batchCode"`
	ExpiryCode       string    `db:"expiry_code" json:"expiryCode"`
	StartDate        string    `db:"start_date" json:"startDate"`
	EndDate          string    `db:"end_date" json:"endDate"`
	PeriodLabel      string    `db:"period_label" json:"periodLabel"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	ProducedLots     Lots      `db:"produced_lots" json:"producedLots"`
	RawLots          Lots      `db:"raw_lots" json:"rawLots"`
	ChemicalLots     Lots      `db:"chemical_lots" json:"chemicalLots"`
	TotalProducedKg  float64   `db:"total_produced_kg" json:"totalProducedKg"`
	TotalRawKg       float64   `db:"total_raw_kg" json:"totalRawKg"`
	TotalChemicalsKg float64   `db:"total_chemicals_kg" json:"totalChemicalsKg"`
}

// Discharge status values. A slot is free when its newest discharge is
// shipped or when nothing was ever discharged into it.
const (
	DischargeOccupied  = "occupied"
	DischargeAllocated = "allocated"
	DischargeShipped   = "shipped"
	SlotFree           = "free"
)

type Discharge struct {
	ID                int64     `db:"id" json:"id"`
	DischargeDate     string    `db:"discharge_date" json:"dischargeDate"`
	DischargeTime     string    `db:"discharge_time" json:"dischargeTime"`
	Operator          string    `db:"operator" json:"operator"`
	Remarks           string    `db:"remarks" json:"remarks"`
	OriginSilo        string    `db:"origin_silo" json:"originSilo"`
	LotNumber         string    `db:"lot_number" json:"lotNumber"`
	LocationCode      string    `db:"location_code" json:"locationCode"`
	QuantityKg        float64   `db:"quantity_kg" json:"quantityKg"`
	Status            string    `db:"status" json:"status"`
	Customer          string    `db:"customer" json:"customer"`
	ShippingDate      string    `db:"shipping_date" json:"shippingDate"`
	Reference         string    `db:"reference" json:"reference"`
	AllocationRemarks string    `db:"allocation_remarks" json:"allocationRemarks"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}

type Topic struct {
	ID          string      `db:"id" json:"id"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UserCode    string      `db:"user_code" json:"user"`
	InfoLabels  StringList  `db:"info_labels" json:"infoLabels"`
	TopicType   string      `db:"topic_type" json:"topicType"`
	Message     string      `db:"message" json:"message"`
	Attachments Attachments `db:"attachments" json:"attachments"`
	AckBy       StringList  `db:"ack_by" json:"ackBy"`
}

// Schedule cell states.
const (
	ScheduleYellow     = "yellow"
	ScheduleWhiteEmpty = "white-empty"
	ScheduleWhiteCode  = "white-code"
)

type ScheduleEntry struct {
	ID           int64  `db:"id" json:"-"`
	Date         string `db:"date" json:"date"`
	Shift        string `db:"shift" json:"shift"`
	UserCode     string `db:"user_code" json:"user"`
	State        string `db:"state" json:"state"`
	Start        string `db:"start_hhmm" json:"start"`
	End          string `db:"end_hhmm" json:"end"`
	OriginalUser string `db:"original_user" json:"originalUser"`
	CoverUser    string `db:"cover_user" json:"coverUser"`
}

type Absence struct {
	Date         string `db:"date" json:"date"`
	Shift        string `db:"shift" json:"shift"`
	OriginalUser string `db:"original_user" json:"originalUser"`
	Approved     bool   `db:"approved" json:"approved"`
}

type Replacement struct {
	Date         string    `db:"date" json:"date"`
	Shift        string    `db:"shift" json:"shift"`
	OriginalUser string    `db:"original_user" json:"originalUser"`
	CoverUser    string    `db:"cover_user" json:"coverUser"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
