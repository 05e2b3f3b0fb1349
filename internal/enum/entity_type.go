package enum

type EntityType string

const (
	DOMAIN   EntityType = "DOMAIN"
	PURCHASE EntityType = "PURCHASE"
)

func (e EntityType) String() string {
	return string(e)
}
