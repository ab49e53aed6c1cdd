package contract

import "github.com/Dhoini/Subscription-ledger/internal/domain"

// Компоненты-способности, из которых собираются контракты.
// Вместо наследования каждый контракт держит нужные ему компоненты.

// Ownable единственный изменяемый владелец с полным административным контролем
type Ownable struct {
	owner domain.Address
}

// NewOwnable создает компонент владения
func NewOwnable(owner domain.Address) Ownable {
	return Ownable{owner: owner}
}

// Owner возвращает текущего владельца
func (o *Ownable) Owner() domain.Address {
	return o.owner
}

// RequireOwner проверяет, что вызывающий является владельцем
func (o *Ownable) RequireOwner(caller domain.Address) error {
	if caller != o.owner {
		return domain.ErrUnauthorizedCaller
	}
	return nil
}

// TransferOwnership передает владение новому адресу
func (o *Ownable) TransferOwnership(caller, newOwner domain.Address) error {
	if err := o.RequireOwner(caller); err != nil {
		return err
	}
	o.owner = newOwner
	return nil
}

// Pausable ручной предохранитель: остановленный контракт отклоняет
// мутирующие вызовы, чтение остается доступным
type Pausable struct {
	paused bool
}

// Paused возвращает текущее состояние предохранителя
func (p *Pausable) Paused() bool {
	return p.paused
}

// RequireNotPaused проверяет, что контракт не остановлен
func (p *Pausable) RequireNotPaused() error {
	if p.paused {
		return domain.ErrOperationalHalt
	}
	return nil
}

func (p *Pausable) setPaused(paused bool) {
	p.paused = paused
}

// ReentrancyGuard запрещает вложенный повторный вход в защищенные функции
type ReentrancyGuard struct {
	entered bool
}

// Enter помечает вход в защищенную функцию
func (g *ReentrancyGuard) Enter() error {
	if g.entered {
		return domain.ErrReentrantCall
	}
	g.entered = true
	return nil
}

// Leave помечает выход из защищенной функции
func (g *ReentrancyGuard) Leave() {
	g.entered = false
}
