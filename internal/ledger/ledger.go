package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
)

// TransferHook код получателя, выполняемый при входящем переводе средств.
// Возврат ошибки отменяет перевод целиком.
type TransferHook func(tx *Tx, from domain.Address, amount uint64) error

// EventSink приемник событий леджера (Kafka, метрики, архив, кэш)
type EventSink interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Ledger исполняет вызовы контрактов как атомарные сериализованные единицы.
// Все мутирующие вызовы проходят через Submit под одним мьютексом: частичное
// состояние незавершенного вызова не видно никому, а ошибка прерывает вызов
// без изменений и без событий.
type Ledger struct {
	mu       sync.Mutex
	balances map[domain.Address]uint64
	hooks    map[domain.Address]TransferHook
	clock    func() time.Time
	sinks    []EventSink
	log      *logger.Logger
}

// New создает новый леджер
func New(log *logger.Logger) *Ledger {
	return &Ledger{
		balances: make(map[domain.Address]uint64),
		hooks:    make(map[domain.Address]TransferHook),
		clock:    time.Now,
		log:      log,
	}
}

// SetClock заменяет источник времени (используется в тестах)
func (l *Ledger) SetClock(clock func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock = clock
}

// AttachSink подключает приемник событий. Приемники получают события
// только после успешного завершения вызова.
func (l *Ledger) AttachSink(sink EventSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, sink)
}

// RegisterHook регистрирует код получателя для адреса
func (l *Ledger) RegisterHook(addr domain.Address, hook TransferHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks[addr] = hook
}

// Fund зачисляет средства на счет (генезис/пополнение извне)
func (l *Ledger) Fund(addr domain.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] += amount
}

// Balance возвращает баланс счета
func (l *Ledger) Balance(addr domain.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr]
}

// Now возвращает текущее время леджера
func (l *Ledger) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clock()
}

// Tx контекст одного вызова: кто вызвал, сколько средств приложено,
// какое сейчас время. Накапливает события до фиксации.
// Отправитель ведется стеком кадров: контракт, передающий вызов дальше,
// подставляет собственный адрес через As, а не права инициатора.
type Tx struct {
	ledger       *Ledger
	origin       domain.Address
	callers      []domain.Address
	value        uint64
	valueClaimed bool
	now          time.Time
	events       []domain.Event
}

// Caller возвращает отправителя текущего кадра вызова
func (tx *Tx) Caller() domain.Address {
	return tx.callers[len(tx.callers)-1]
}

// Origin возвращает инициатора всего вызова
func (tx *Tx) Origin() domain.Address {
	return tx.origin
}

// As исполняет fn от имени sender: на время fn отправителем становится
// sender, по выходе прежний кадр восстанавливается. Так шлюз предстает
// перед реестром под своим адресом, а код получателя перевода не
// наследует права вызвавшего.
func (tx *Tx) As(sender domain.Address, fn func() error) error {
	tx.callers = append(tx.callers, sender)
	defer func() { tx.callers = tx.callers[:len(tx.callers)-1] }()
	return fn()
}

// Value возвращает сумму, приложенную к вызову
func (tx *Tx) Value() uint64 {
	return tx.value
}

// Now возвращает время вызова
func (tx *Tx) Now() time.Time {
	return tx.now
}

// Emit добавляет событие в буфер вызова. События доставляются приемникам
// только при успешной фиксации.
func (tx *Tx) Emit(event domain.Event) {
	tx.events = append(tx.events, event)
}

// ClaimValue переводит приложенные к вызову средства на указанный счет.
// Средства остаются у инициатора, пока контракт их не востребует:
// отклоненный вызов не меняет ничей баланс.
func (tx *Tx) ClaimValue(to domain.Address) error {
	if tx.valueClaimed {
		return fmt.Errorf("call value already claimed")
	}
	if tx.ledger.balances[tx.origin] < tx.value {
		return domain.ErrInsufficientFunds
	}
	tx.ledger.balances[tx.origin] -= tx.value
	tx.ledger.balances[to] += tx.value
	tx.valueClaimed = true
	return nil
}

// Transfer переводит средства между счетами внутри вызова. Если у получателя
// зарегистрирован TransferHook, он выполняется в рамках того же вызова и
// может инициировать произвольный код; его ошибка откатывает перевод.
// Хук исполняется в кадре получателя: внутри него Caller() возвращает
// адрес получателя, а не отправителя перевода.
func (tx *Tx) Transfer(from, to domain.Address, amount uint64) error {
	if tx.ledger.balances[from] < amount {
		return domain.ErrInsufficientFunds
	}
	tx.ledger.balances[from] -= amount
	tx.ledger.balances[to] += amount

	if hook, ok := tx.ledger.hooks[to]; ok {
		if err := tx.As(to, func() error { return hook(tx, from, amount) }); err != nil {
			// Откатываем перевод, получатель отказался
			tx.ledger.balances[to] -= amount
			tx.ledger.balances[from] += amount
			return fmt.Errorf("recipient rejected transfer: %w", err)
		}
	}
	return nil
}

// BalanceOf возвращает баланс счета внутри вызова
func (tx *Tx) BalanceOf(addr domain.Address) uint64 {
	return tx.ledger.balances[addr]
}

// Submit исполняет мутирующий вызов атомарно. Контракты проверяют все
// предусловия до мутаций, поэтому ошибка означает отсутствие изменений.
// События опубликовываются после фиксации; ошибки приемников логируются,
// но не влияют на результат вызова.
func (l *Ledger) Submit(ctx context.Context, caller domain.Address, value uint64, fn func(tx *Tx) error) error {
	l.mu.Lock()
	tx := &Tx{
		ledger:  l,
		origin:  caller,
		callers: []domain.Address{caller},
		value:   value,
		now:     l.clock(),
	}

	if err := fn(tx); err != nil {
		l.mu.Unlock()
		return err
	}

	events := tx.events
	sinks := l.sinks
	l.mu.Unlock()

	for _, event := range events {
		for _, sink := range sinks {
			if err := sink.Publish(ctx, event); err != nil {
				l.log.Errorw("Failed to publish ledger event", "error", err, "type", event.Type, "eventID", event.ID)
			}
		}
	}
	return nil
}

// View исполняет вызов только для чтения под той же сериализацией.
// Доступен всегда, независимо от пауз контрактов.
func (l *Ledger) View(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx := &Tx{
		ledger:  l,
		callers: []domain.Address{domain.ZeroAddress},
		now:     l.clock(),
	}
	return fn(tx)
}
