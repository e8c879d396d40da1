package enum

type EntityType string

const (
	SUBMISSION EntityType = "SUBMISSION"
)

func (entityType EntityType) String() string {
	return string(entityType)
}
