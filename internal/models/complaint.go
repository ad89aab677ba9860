package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind identifies one of the complaint families. Each kind lives in its own
// collection but shares the Complaint shape.
type Kind string

const (
	KindReport       Kind = "report"
	KindMissing      Kind = "missing"
	KindUnidentified Kind = "unidentified"
	KindMSLF         Kind = "mslf"
	KindMobileApp    Kind = "mobileapp"
)

var Kinds = []Kind{KindReport, KindMissing, KindUnidentified, KindMSLF, KindMobileApp}

var kindCollections = map[Kind]string{
	KindReport:       "complaints",
	KindMissing:      "missingpersons",
	KindUnidentified: "unidpersons",
	KindMSLF:         "mslfs",
	KindMobileApp:    "mobiapps",
}

func (k Kind) Valid() bool {
	_, ok := kindCollections[k]
	return ok
}

// Collection returns the MongoDB collection that stores records of kind k.
func (k Kind) Collection() string { return kindCollections[k] }

type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
	StatusClosed     Status = "closed"
)

var Statuses = []Status{StatusPending, StatusAssigned, StatusInProgress, StatusResolved, StatusRejected, StatusClosed}

// TerminalStatuses decide whether a record is listed as history.
var TerminalStatuses = []Status{StatusResolved, StatusRejected, StatusClosed}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	for _, v := range TerminalStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Complaint struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Kind      Kind               `bson:"kind" json:"kind"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	OwnerName string             `bson:"ownerName" json:"ownerName"`
	Station   string             `bson:"station" json:"station"`

	Status       Status              `bson:"status" json:"status"`
	PoliceStatus string              `bson:"policeStatus,omitempty" json:"policeStatus,omitempty"`
	AssignedTo   *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedBy   *primitive.ObjectID `bson:"assignedBy,omitempty" json:"assignedBy,omitempty"`
	AssignedAt   *time.Time          `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`

	Description   string `bson:"description,omitempty" json:"description,omitempty"`
	IncidentDate  string `bson:"incidentDate,omitempty" json:"incidentDate,omitempty"`
	IncidentPlace string `bson:"incidentPlace,omitempty" json:"incidentPlace,omitempty"`

	ProofImages []string `bson:"proofImages" json:"proofImages"`
	ProofKeys   []string `bson:"proofKeys,omitempty" json:"-"`

	Incident *IncidentDetails `bson:"incident,omitempty" json:"incident,omitempty"`
	Person   *PersonDetails   `bson:"person,omitempty" json:"person,omitempty"`
	Property *PropertyDetails `bson:"property,omitempty" json:"property,omitempty"`
	Device   *DeviceDetails   `bson:"device,omitempty" json:"device,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IncidentDetails describe a theft/crime report.
type IncidentDetails struct {
	Category    string `bson:"category,omitempty" json:"category,omitempty" form:"category"`
	Suspect     string `bson:"suspect,omitempty" json:"suspect,omitempty" form:"suspect"`
	StolenItems string `bson:"stolenItems,omitempty" json:"stolenItems,omitempty" form:"stolenItems"`
}

// PersonDetails describe a missing or an unidentified person.
type PersonDetails struct {
	Name             string `bson:"name,omitempty" json:"name,omitempty" form:"personName"`
	Age              int    `bson:"age,omitempty" json:"age,omitempty" form:"age"`
	Gender           string `bson:"gender,omitempty" json:"gender,omitempty" form:"gender"`
	Height           string `bson:"height,omitempty" json:"height,omitempty" form:"height"`
	Complexion       string `bson:"complexion,omitempty" json:"complexion,omitempty" form:"complexion"`
	LastSeen         string `bson:"lastSeen,omitempty" json:"lastSeen,omitempty" form:"lastSeen"`
	IdentifyingMarks string `bson:"identifyingMarks,omitempty" json:"identifyingMarks,omitempty" form:"identifyingMarks"`
}

// PropertyDetails describe missing, stolen, lost or found property.
type PropertyDetails struct {
	ItemType     string `bson:"itemType,omitempty" json:"itemType,omitempty" form:"itemType"`
	Brand        string `bson:"brand,omitempty" json:"brand,omitempty" form:"brand"`
	SerialNumber string `bson:"serialNumber,omitempty" json:"serialNumber,omitempty" form:"serialNumber"`
	LostOrFound  string `bson:"lostOrFound,omitempty" json:"lostOrFound,omitempty" form:"lostOrFound"`
}

// DeviceDetails describe a lost or stolen mobile phone.
type DeviceDetails struct {
	Brand     string `bson:"brand,omitempty" json:"brand,omitempty" form:"deviceBrand"`
	Model     string `bson:"model,omitempty" json:"model,omitempty" form:"deviceModel"`
	IMEI1     string `bson:"imei1,omitempty" json:"imei1,omitempty" form:"imei1"`
	IMEI2     string `bson:"imei2,omitempty" json:"imei2,omitempty" form:"imei2"`
	SimNumber string `bson:"simNumber,omitempty" json:"simNumber,omitempty" form:"simNumber"`
}
