package contract

import (
	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/ledger"
)

// AccessCredential непередаваемый токен доступа. Владелец токена меняется
// только через mint/burn доверенного менеджера; любая попытка передачи
// отклоняется независимо от выданных разрешений.
type AccessCredential struct {
	Ownable

	manager   domain.Address
	nextID    uint64
	owners    map[uint64]domain.Address
	approvals map[uint64]domain.Address
}

// NewAccessCredential создает контракт токена с настроенным менеджером.
// Менеджером ожидается реестр подписок, но ни один путь реестра сейчас
// не вызывает mint/burn.
func NewAccessCredential(owner, manager domain.Address) *AccessCredential {
	return &AccessCredential{
		Ownable:   NewOwnable(owner),
		manager:   manager,
		owners:    make(map[uint64]domain.Address),
		approvals: make(map[uint64]domain.Address),
	}
}

// Manager возвращает текущего менеджера
func (c *AccessCredential) Manager() domain.Address {
	return c.manager
}

// SetManager заменяет менеджера. Только владелец контракта.
func (c *AccessCredential) SetManager(tx *ledger.Tx, manager domain.Address) error {
	if err := c.RequireOwner(tx.Caller()); err != nil {
		return domain.NewCallError("setManager", tx.Caller(), err)
	}
	c.manager = manager
	return nil
}

// Mint выпускает токен со следующим последовательным идентификатором.
// Только менеджер.
func (c *AccessCredential) Mint(tx *ledger.Tx, to domain.Address) (uint64, error) {
	if tx.Caller() != c.manager {
		return 0, domain.NewCallError("mint", tx.Caller(), domain.ErrUnauthorizedCaller)
	}

	c.nextID++
	id := c.nextID
	c.owners[id] = to

	event := domain.NewEvent(domain.EventCredentialMinted, tx.Now())
	event.Account = to
	event.TokenID = id
	tx.Emit(event)
	return id, nil
}

// Burn уничтожает токен. Только менеджер.
func (c *AccessCredential) Burn(tx *ledger.Tx, id uint64) error {
	if tx.Caller() != c.manager {
		return domain.NewCallError("burn", tx.Caller(), domain.ErrUnauthorizedCaller)
	}

	owner, ok := c.owners[id]
	if !ok {
		return domain.NewCallError("burn", tx.Caller(), domain.ErrNotFound)
	}

	delete(c.owners, id)
	delete(c.approvals, id)

	event := domain.NewEvent(domain.EventCredentialBurned, tx.Now())
	event.Account = owner
	event.TokenID = id
	tx.Emit(event)
	return nil
}

// Approve выдает разрешение на токен. Разрешение допустимо выдать,
// но передачу оно не разблокирует.
func (c *AccessCredential) Approve(tx *ledger.Tx, id uint64, spender domain.Address) error {
	owner, ok := c.owners[id]
	if !ok {
		return domain.NewCallError("approve", tx.Caller(), domain.ErrNotFound)
	}
	if tx.Caller() != owner {
		return domain.NewCallError("approve", tx.Caller(), domain.ErrUnauthorizedCaller)
	}
	c.approvals[id] = spender
	return nil
}

// TransferFrom всегда отклоняется: токен непередаваемый
func (c *AccessCredential) TransferFrom(tx *ledger.Tx, from, to domain.Address, id uint64) error {
	return domain.NewCallError("transferFrom", tx.Caller(), domain.ErrSoulbound)
}

// SafeTransferFrom всегда отклоняется: токен непередаваемый
func (c *AccessCredential) SafeTransferFrom(tx *ledger.Tx, from, to domain.Address, id uint64) error {
	return domain.NewCallError("safeTransferFrom", tx.Caller(), domain.ErrSoulbound)
}

// OwnerOf возвращает владельца токена
func (c *AccessCredential) OwnerOf(id uint64) (domain.Address, error) {
	owner, ok := c.owners[id]
	if !ok {
		return domain.ZeroAddress, domain.ErrNotFound
	}
	return owner, nil
}

// BalanceOf возвращает количество токенов у адреса
func (c *AccessCredential) BalanceOf(addr domain.Address) int {
	count := 0
	for _, owner := range c.owners {
		if owner == addr {
			count++
		}
	}
	return count
}
