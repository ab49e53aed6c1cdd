package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrUnauthorizedCaller привилегированный вызов не от владельца/процессора/менеджера
	ErrUnauthorizedCaller = errors.New("unauthorized caller")

	// ErrInvalidTier тариф отсутствует или неактивен
	ErrInvalidTier = errors.New("invalid tier")

	// ErrInsufficientPayment оплата меньше цены тарифа
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrInsufficientFunds вывод превышает баланс контракта
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTransferRejected исходящий перевод завершился неудачей
	ErrTransferRejected = errors.New("failed to send")

	// ErrSoulbound попытка передачи непередаваемого токена
	ErrSoulbound = errors.New("token is soulbound")

	// ErrOperationalHalt вызов во время паузы
	ErrOperationalHalt = errors.New("contract is paused")

	// ErrReentrantCall повторный вход в защищенную функцию
	ErrReentrantCall = errors.New("reentrant call")

	// ErrSubscriptionNotActive объявлена в исходном коде, но ни один путь вызова
	// ее не порождает; сохранена как есть
	ErrSubscriptionNotActive = errors.New("subscription not active")

	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")
)

// CallError представляет ошибку вызова контракта
type CallError struct {
	Op          string
	Caller      Address
	OriginalErr error
}

// Error реализует интерфейс error
func (e *CallError) Error() string {
	if e.Caller != ZeroAddress {
		return fmt.Sprintf("call error [%s]: %v (caller: %s)", e.Op, e.OriginalErr, e.Caller)
	}
	return fmt.Sprintf("call error [%s]: %v", e.Op, e.OriginalErr)
}

// Unwrap возвращает оригинальную ошибку
func (e *CallError) Unwrap() error {
	return e.OriginalErr
}

// NewCallError создает новую ошибку вызова контракта
func NewCallError(op string, caller Address, err error) *CallError {
	return &CallError{
		Op:          op,
		Caller:      caller,
		OriginalErr: err,
	}
}
