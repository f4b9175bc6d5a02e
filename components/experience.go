package components

// ActionKind classifies an experience record.
type ActionKind uint8

const (
	ActionFire ActionKind = iota
	ActionDied
)

// ExperienceRecord is one combat outcome sample used as adaptation input.
type ExperienceRecord struct {
	Action       ActionKind
	Hit          bool
	Distance     float64
	TargetMoving bool
	At           float64 // simulation seconds
}

// ExperienceCap bounds the experience log. Oldest records are evicted on
// overflow.
const ExperienceCap = 100

// ExperienceLog is an append-only ring buffer of outcome records.
type ExperienceLog struct {
	records [ExperienceCap]ExperienceRecord
	head    int // index of the oldest record
	size    int
}

// Append adds a record, evicting the oldest when full.
func (l *ExperienceLog) Append(r ExperienceRecord) {
	if l.size < ExperienceCap {
		l.records[(l.head+l.size)%ExperienceCap] = r
		l.size++
		return
	}
	l.records[l.head] = r
	l.head = (l.head + 1) % ExperienceCap
}

// Len returns the number of stored records.
func (l *ExperienceLog) Len() int {
	return l.size
}

// At returns the i-th record, oldest first. i must be in [0, Len).
func (l *ExperienceLog) At(i int) ExperienceRecord {
	return l.records[(l.head+i)%ExperienceCap]
}

// Reset drops all records.
func (l *ExperienceLog) Reset() {
	l.head = 0
	l.size = 0
}
