package money

type Currency string

type Amount struct {
	Cents    int64
	Currency Currency
}
