package dispenser

type Pool string

const (
	PoolFree Pool = "free"
	PoolPaid Pool = "paid"
)

func ParsePool(value string) (Pool, error) {
	switch Pool(value) {
	case PoolFree, PoolPaid:
		return Pool(value), nil
	default:
		return "", ErrInvalidType
	}
}
