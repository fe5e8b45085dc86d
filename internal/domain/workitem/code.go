package workitem

import (
	"fmt"
	"time"
)

// FallbackPrefix is used for categories without a declared prefix.
const FallbackPrefix = "TASK"

var prefixes = map[Category]string{
	CategoryInstallation:  "INST",
	CategoryMaintenance:   "MAINT",
	CategoryRepair:        "REP",
	CategoryInspection:    "INSP",
	CategoryCalibration:   "CAL",
	CategoryCommissioning: "COMM",
	CategoryTraining:      "TRAIN",
	CategoryEmergency:     "EMRG",
	CategoryOther:         "OTHER",
}

// Prefix returns the code prefix for a category.
func Prefix(c Category) string {
	if p, ok := prefixes[c]; ok {
		return p
	}
	return FallbackPrefix
}

// SequenceKey identifies one counter: a prefix on one calendar day.
type SequenceKey struct {
	Prefix string
	Day    string // yymmdd
}

func (k SequenceKey) String() string {
	return k.Prefix + "-" + k.Day
}

// FormatCode renders a code as PREFIX-YYMMDD-NNN. The sequence is padded
// to three digits and widens past 999.
func FormatCode(key SequenceKey, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", key.Prefix, key.Day, seq)
}

// Generator derives counter keys from a category and an instant. The
// sequence itself is allocated by Repository.Insert in the same
// transaction that stores the work item, so codes are never issued
// without a stored item behind them.
type Generator struct {
	loc *time.Location
}

// NewGenerator creates a generator. Calendar days are taken in loc; nil
// means UTC.
func NewGenerator(loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{loc: loc}
}

// Key returns the counter key for category at instant t.
func (g *Generator) Key(category Category, t time.Time) SequenceKey {
	return SequenceKey{Prefix: Prefix(category), Day: t.In(g.loc).Format("060102")}
}
