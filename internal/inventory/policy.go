package inventory

import (
	"errors"

	"github.com/saliou-conde/vending-machine/internal/repository"
)

// MaxQuantity - порог корзины: инкремент запрещён, если quantity уже больше этого значения
// Проверка выполняется до инкремента, поэтому корзина может дойти до MaxQuantity+1
const MaxQuantity = 9

// ErrMaxStockExceeded возвращается, когда корзина уже переполнена
var ErrMaxStockExceeded = errors.New("max stock exceeded")

// Action - решение политики для корзины
type Action int

const (
	ActionNoop Action = iota
	ActionNewBucket
	ActionIncrement
	ActionDecrement
	ActionReject
)

func (a Action) String() string {
	switch a {
	case ActionNewBucket:
		return "new_bucket"
	case ActionIncrement:
		return "increment"
	case ActionDecrement:
		return "decrement"
	case ActionReject:
		return "reject"
	default:
		return "noop"
	}
}

// Plan описывает, что сделать с корзиной
type Plan struct {
	Action Action
	// Reason заполняется только для ActionReject
	Reason error
}

// PlanForCreate решает, что делать с корзиной при создании товара
func PlanForCreate(existing *repository.Bucket) Plan {
	if existing == nil {
		return Plan{Action: ActionNewBucket}
	}
	if existing.Quantity > MaxQuantity {
		return Plan{Action: ActionReject, Reason: ErrMaxStockExceeded}
	}
	return Plan{Action: ActionIncrement}
}

// PlanForDelete решает, что делать с корзиной при удалении товара
// Нижняя граница не проверяется: quantity может уйти в минус
func PlanForDelete(existing *repository.Bucket) Plan {
	if existing == nil {
		return Plan{Action: ActionNoop}
	}
	return Plan{Action: ActionDecrement}
}

// Apply превращает план в корзину для записи
// newID вызывается только для ActionNewBucket
// Для ActionNoop возвращает nil, для ActionReject - Reason
func (p Plan) Apply(existing *repository.Bucket, name string, newID func() string) (*repository.Bucket, error) {
	switch p.Action {
	case ActionNewBucket:
		return &repository.Bucket{ID: newID(), Name: name, Quantity: 1}, nil
	case ActionIncrement:
		next := *existing
		next.Quantity++
		return &next, nil
	case ActionDecrement:
		next := *existing
		next.Quantity--
		return &next, nil
	case ActionReject:
		return nil, p.Reason
	default:
		return nil, nil
	}
}

// CreateMutation возвращает мутацию корзины для создания товара с именем name
func CreateMutation(name string, newID func() string) repository.BucketMutation {
	return func(existing *repository.Bucket) (*repository.Bucket, error) {
		return PlanForCreate(existing).Apply(existing, name, newID)
	}
}

// DeleteMutation возвращает мутацию корзины для удаления товара с именем name
func DeleteMutation(name string) repository.BucketMutation {
	return func(existing *repository.Bucket) (*repository.Bucket, error) {
		return PlanForDelete(existing).Apply(existing, name, nil)
	}
}
