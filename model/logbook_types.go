package model

import "time"

// Production markers written in the calc field of a message.
const (
	CalcStart = "START"
	CalcStop  = "STOP"
)

// Push values that copy a message to the must-read list and the archive.
const (
	PushMustRead = "MUST-READ"
	PushSafety   = "SAFETY"
	PushTopic    = "TOPIC"
)

type User struct {
	Code         string `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`
	PasswordHash string `db:"password_hash" json:"-"`
}

type Session struct {
	ID        string    `db:"id"`
	UserCode  string    `db:"user_code"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

type Message struct {
	ID          string      `db:"id" json:"id"`
	UserCode    string      `db:"user_code" json:"user"`
	Time        string      `db:"time_hhmm" json:"time"`
	Day         string      `db:"day" json:"day,omitempty"`
	Label       string      `db:"label" json:"label,omitempty"`
	Message     string      `db:"message" json:"message"`
	InfoLabels  StringList  `db:"info_labels" json:"infoLabels"`
	Software    StringList  `db:"software" json:"software"`
	Calc        string      `db:"calc" json:"calc"`
	Push        string      `db:"push" json:"push"`
	Wms         string      `db:"wms" json:"wms"`
	ChemSwitch  string      `db:"chemswitch" json:"chemswitch"`
	QC          string      `db:"qc" json:"qc"`
	Maintenance string      `db:"maintenance" json:"maintenance"`
	ChemIB      string      `db:"chemib" json:"chemib"`
	BulkOB      string      `db:"bulkob" json:"bulkob"`
	DeltaMin    *float64    `db:"delta_min" json:"deltaMin"`
	Attachments Attachments `db:"attachments" json:"attachments"`
	MustRead    bool        `db:"must_read" json:"-"`
	Archived    bool        `db:"archived" json:"-"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}

type NotebookEntry struct {
	UserCode    string      `db:"user_code" json:"-"`
	ID          string      `db:"id" json:"id"`
	FromID      string      `db:"from_id" json:"fromId"`
	Author      string      `db:"author" json:"user,omitempty"`
	Message     string      `db:"message" json:"message"`
	Time        string      `db:"time_hhmm" json:"time"`
	InfoLabels  StringList  `db:"info_labels" json:"infoLabels"`
	Software    StringList  `db:"software" json:"software"`
	Calc        string      `db:"calc" json:"calc"`
	Push        string      `db:"push" json:"push"`
	Wms         string      `db:"wms" json:"wms"`
	ChemSwitch  string      `db:"chemswitch" json:"chemswitch"`
	QC          string      `db:"qc" json:"qc"`
	Maintenance string      `db:"maintenance" json:"maintenance"`
	ChemIB      string      `db:"chemib" json:"chemib"`
	BulkOB      string      `db:"bulkob" json:"bulkob"`
	TopicType   string      `db:"topic_type" json:"topicType"`
	Attachments Attachments `db:"attachments" json:"attachments"`
	CreatedAt   *time.Time  `db:"created_at" json:"createdAt"`
	SavedAt     time.Time   `db:"saved_at" json:"savedAt"`
}

type Todo struct {
	ID        string    `db:"id" json:"id"`
	UserCode  string    `db:"user_code" json:"user"`
	Label     string    `db:"label" json:"label"`
	Link      string    `db:"link" json:"link"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
