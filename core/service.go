package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"reservevault/core/events"
	"reservevault/core/state"
	"reservevault/native/bank"
	"reservevault/native/common"
	"reservevault/native/distributor"
	"reservevault/native/vault"
	"reservevault/native/venue"
	"reservevault/observability/metrics"
	"reservevault/storage"
)

var (
	ErrUnknownAsset   = errors.New("core: unknown asset")
	ErrVenueExists    = errors.New("core: venue already registered")
	ErrCustodySpender = errors.New("core: custody balances move only through the ledger")
)

// Journal persists the events of a committed operation. apply performs the
// ledger commit and must run inside the journal's own transaction.
type Journal interface {
	Record(ctx context.Context, operation string, committedAt time.Time, evts []events.Event, apply func() error) error
}

// Options wires a Service.
type Options struct {
	ChainID            *big.Int
	VaultAddress       [20]byte
	DistributorAddress [20]byte
	DepositAsset       string
	RewardAsset        string
	Journal            Journal
	Logger             *slog.Logger
	Metrics            *metrics.VaultMetrics
	Now                func() time.Time
}

// Service owns the ledger state and serialises every operation against it.
// Each Execute call either commits all of its writes to storage and releases
// its events, or leaves storage untouched.
type Service struct {
	mu       sync.Mutex
	db       storage.Database
	state    *state.Manager
	buffer   *events.Buffer
	emitters events.Multi
	journal  Journal
	logger   *slog.Logger
	metrics  *metrics.VaultMetrics
	nowFn    func() time.Time
	chainID  *big.Int
	address  [20]byte

	vault       *vault.Engine
	distributor *distributor.Engine
	tokens      map[string]*bank.Token
	deposit     *bank.Custody
	rewards     *bank.Custody
	venues      vault.VenueMap
	houses      map[[20]byte]*venue.AuctionHouse
}

// NewService opens the ledger stored in db and wires the engines.
func NewService(db storage.Database, opts Options) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if opts.ChainID == nil || opts.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("core: chain id must be positive")
	}
	var zero [20]byte
	if opts.VaultAddress == zero || opts.DistributorAddress == zero {
		return nil, fmt.Errorf("core: vault and distributor addresses required")
	}
	if opts.VaultAddress == opts.DistributorAddress {
		return nil, fmt.Errorf("core: vault and distributor must not share custody")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	manager := state.NewManager(db)
	if err := manager.EnsureStateVersion(); err != nil {
		return nil, err
	}

	s := &Service{
		db:      db,
		state:   manager,
		buffer:  &events.Buffer{},
		journal: opts.Journal,
		logger:  logger.With(slog.String("component", "core")),
		metrics: opts.Metrics,
		nowFn:   nowFn,
		chainID: new(big.Int).Set(opts.ChainID),
		address: opts.VaultAddress,
		tokens:  make(map[string]*bank.Token),
		venues:  vault.VenueMap{},
		houses:  make(map[[20]byte]*venue.AuctionHouse),
	}

	depositToken, err := s.token(opts.DepositAsset)
	if err != nil {
		return nil, err
	}
	rewardToken, err := s.token(opts.RewardAsset)
	if err != nil {
		return nil, err
	}
	s.deposit = bank.NewCustody(depositToken, opts.VaultAddress)
	s.rewards = bank.NewCustody(rewardToken, opts.DistributorAddress)

	unix := func() int64 { return s.nowFn().Unix() }
	guard := &common.ReentrancyGuard{}

	s.vault = vault.NewEngine()
	s.vault.SetState(manager)
	s.vault.SetAsset(s.deposit)
	s.vault.SetVenues(s.venues)
	s.vault.SetEmitter(s.buffer)
	s.vault.SetNowFunc(unix)
	s.vault.SetReentrancyGuard(guard)
	s.vault.SetDomain(opts.VaultAddress)
	s.vault.SetChainID(opts.ChainID)

	s.distributor = distributor.NewEngine()
	s.distributor.SetState(manager)
	s.distributor.SetAsset(s.rewards)
	s.distributor.SetAuthorizer(s.vault)
	s.distributor.SetEmitter(s.buffer)
	s.distributor.SetNowFunc(unix)
	s.distributor.SetReentrancyGuard(guard)

	return s, nil
}

func (s *Service) token(symbol string) (*bank.Token, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	if tok, ok := s.tokens[key]; ok {
		return tok, nil
	}
	tok, err := bank.NewToken(key, s.state)
	if err != nil {
		return nil, err
	}
	s.tokens[tok.Symbol()] = tok
	return tok, nil
}

// AddEmitter subscribes emitter to committed events.
func (s *Service) AddEmitter(emitter events.Emitter) {
	if emitter == nil {
		return
	}
	s.mu.Lock()
	s.emitters = append(s.emitters, emitter)
	s.mu.Unlock()
}

// Vault returns the reserve ledger engine. Mutating calls must go through
// Execute.
func (s *Service) Vault() *vault.Engine { return s.vault }

// ChainID returns the chain id bound into signed update digests.
func (s *Service) ChainID() *big.Int { return new(big.Int).Set(s.chainID) }

// VaultAddress returns the vault's custody identity, which is also the
// verifying contract of its signing domain.
func (s *Service) VaultAddress() [20]byte { return s.address }

// Distributor returns the epoch reward distributor.
func (s *Service) Distributor() *distributor.Engine { return s.distributor }

// DepositCustody returns the vault's position in the deposited asset.
func (s *Service) DepositCustody() *bank.Custody { return s.deposit }

// RewardCustody returns the distributor's position in the reward asset.
func (s *Service) RewardCustody() *bank.Custody { return s.rewards }

// Token returns the ledger for symbol if it is one of the configured assets.
func (s *Service) Token(symbol string) (*bank.Token, error) {
	tok, ok := s.tokens[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, symbol)
	}
	return tok, nil
}

// RegisterAuctionHouse deploys an in-process venue at address that pulls from
// the vault custody and pays beneficiary. The venue only becomes reachable
// once the administrator binds a right to it and approves the destination.
func (s *Service) RegisterAuctionHouse(address, beneficiary [20]byte) (*venue.AuctionHouse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.houses[address]; exists {
		return nil, ErrVenueExists
	}
	house, err := venue.NewAuctionHouse(address, s.deposit.Holder(), beneficiary, s.deposit.Token(), s.state)
	if err != nil {
		return nil, err
	}
	house.SetEmitter(s.buffer)
	s.houses[address] = house
	s.venues[address] = house
	return house, nil
}

// AuctionHouse returns the venue registered at address.
func (s *Service) AuctionHouse(address [20]byte) (*venue.AuctionHouse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	house, ok := s.houses[address]
	return house, ok
}

// Execute runs fn as one atomic operation. fn may call any number of engine
// methods; if it fails, or the commit fails, every write it made is dropped
// along with its events.
func (s *Service) Execute(ctx context.Context, name string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := fn()
	committed := 0
	if err == nil {
		committed, err = s.commit(ctx, name)
	}
	if err != nil {
		s.state.Discard()
		s.buffer.Discard()
	}
	elapsed := time.Since(start)
	s.metrics.ObserveOperation(name, err, elapsed)

	if err != nil {
		s.logger.Warn("operation reverted",
			slog.String("operation", name),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed))
		return err
	}
	s.logger.Info("operation committed",
		slog.String("operation", name),
		slog.Int("events", committed),
		slog.Duration("elapsed", elapsed))
	return nil
}

func (s *Service) commit(ctx context.Context, name string) (int, error) {
	evts := s.buffer.Drain()
	if s.journal != nil {
		if err := s.journal.Record(ctx, name, s.nowFn(), evts, s.state.Commit); err != nil {
			return 0, err
		}
	} else if err := s.state.Commit(); err != nil {
		return 0, err
	}
	for _, evt := range evts {
		s.emitters.Emit(evt)
		s.metrics.ObserveEvent(evt.EventType())
	}
	s.publishTotals()
	return len(evts), nil
}

func (s *Service) publishTotals() {
	if s.metrics == nil {
		return
	}
	totals, err := s.vault.Totals()
	if err != nil {
		s.logger.Warn("read totals", slog.String("error", err.Error()))
		return
	}
	s.metrics.SetTotal("deposits", totals.Deposits)
	s.metrics.SetTotal("consumed_for_royalty", totals.ConsumedForRoyalty)
	s.metrics.SetTotal("royalty_allocated", totals.RoyaltyAllocated)
	s.metrics.SetTotal("royalty_paid", totals.RoyaltyPaid)
	if holdings, err := s.deposit.Balance(); err == nil {
		s.metrics.SetTotal("custody", holdings)
	}
}

// View runs fn against committed state. Reads never observe a half-applied
// operation.
func (s *Service) View(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Transfer moves a configured asset between two identities. It is how
// holders fund the reward pool or top up custody. Custody holders cannot send.
func (s *Service) Transfer(ctx context.Context, symbol string, from, to [20]byte, amount *uint256.Int) error {
	tok, err := s.Token(symbol)
	if err != nil {
		return err
	}
	if from == s.deposit.Holder() || from == s.rewards.Holder() {
		return ErrCustodySpender
	}
	return s.Execute(ctx, "transfer", func() error {
		return tok.Transfer(from, to, amount)
	})
}

// Close drops uncommitted writes and closes the database.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Discard()
	return s.db.Close()
}
