// Package scenario drives a fresh local deployment through the vault's
// whole capability surface in ordered stages, reconciling balances
// between stages.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/internal/contracts"
	"github.com/mesh-intelligence/xvault/internal/deploy"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// Scenario errors.
var (
	ErrExpectedRevert = errors.New("expected revert")
	ErrUnbalanced     = errors.New("balances do not reconcile")
	ErrAssertion      = errors.New("assertion failed")
)

// ExpectRevert returns nil if err is a contract revert and an error
// otherwise.
func ExpectRevert(err error) error {
	if err == nil {
		return ErrExpectedRevert
	}
	if !types.IsRevert(err) {
		return fmt.Errorf("%w, got: %w", ErrExpectedRevert, err)
	}
	return nil
}

// DefaultStart is the ledger time scenarios begin at.
var DefaultStart = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

// Options configures New.
type Options struct {
	Logger   *zap.Logger
	Out      io.Writer
	Registry prometheus.Registerer

	// Start is the initial ledger time. Defaults to DefaultStart.
	Start time.Time

	// Verbose prints the balance report after every stage.
	Verbose bool
}

// Scenario is a fresh ledger with a local deployment and four funded
// signers: owner, alice, bob and carol.
type Scenario struct {
	chain   *chain.Chain
	clock   *chain.ManualClock
	d       *deploy.Result
	log     *zap.Logger
	out     io.Writer
	verbose bool

	owner, alice, bob, carol common.Address
	holders                  []Holder
}

// New builds the ledger and deploys the local profile on it.
func New(ctx context.Context, opts Options) (*Scenario, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Start.IsZero() {
		opts.Start = DefaultStart
	}
	clock := chain.NewManualClock(opts.Start)
	c := chain.New(chain.Options{
		Clock:     clock,
		Logger:    opts.Logger,
		Registry:  opts.Registry,
		Factories: contracts.Factories(),
	})
	signers, err := chain.DeriveSigners(len(chain.DefaultSignerLabels))
	if err != nil {
		return nil, err
	}
	c.Genesis(signers, types.Ether(10000))

	d, err := deploy.Run(ctx, c, deploy.Options{
		Profile:  types.ProfileLocal,
		Name:     "scenario",
		Deployer: signers[0].Address,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	s := &Scenario{
		chain:   c,
		clock:   clock,
		d:       d,
		log:     opts.Logger.With(zap.String("module", "scenario")),
		out:     opts.Out,
		verbose: opts.Verbose,
		owner:   signers[0].Address,
		alice:   signers[1].Address,
		bob:     signers[2].Address,
		carol:   signers[3].Address,
	}
	for _, sg := range signers {
		s.holders = append(s.holders, Holder{Label: sg.Label, Address: sg.Address})
	}
	return s, nil
}

// Chain returns the scenario ledger.
func (s *Scenario) Chain() *chain.Chain { return s.chain }

// Deployment returns the contracts under test.
func (s *Scenario) Deployment() *deploy.Result { return s.d }

// Holders returns the accounts reconciled by CheckBalances.
func (s *Scenario) Holders() []Holder { return s.holders }

// CheckBalances reconciles the signers' balances against the vault.
func (s *Scenario) CheckBalances() *Report {
	return CheckBalances(s.d.Token, s.d.Market, s.d.Vault.Address(), s.holders)
}

// Stage is one step of the scenario.
type Stage struct {
	Name string
	Run  func(ctx context.Context, s *Scenario) error

	// SupplyOnly skips the NFT backing check after the stage, for stages
	// that move reserves out of the vault.
	SupplyOnly bool
}

// StageResult records how a stage went.
type StageResult struct {
	Name     string
	Err      error
	Report   *Report
	Duration time.Duration
}

// Passed reports whether the stage succeeded.
func (r StageResult) Passed() bool { return r.Err == nil }

// Result is the outcome of Run.
type Result struct {
	Stages []StageResult
}

// Passed reports whether every stage that ran succeeded and none were
// skipped.
func (r *Result) Passed() bool {
	if len(r.Stages) != len(Stages()) {
		return false
	}
	for _, st := range r.Stages {
		if !st.Passed() {
			return false
		}
	}
	return true
}

// Err returns the first stage error.
func (r *Result) Err() error {
	for _, st := range r.Stages {
		if st.Err != nil {
			return fmt.Errorf("stage %q: %w", st.Name, st.Err)
		}
	}
	return nil
}

// Run executes every stage in order and stops at the first failure.
func (s *Scenario) Run(ctx context.Context) *Result {
	res := &Result{}
	for _, st := range Stages() {
		start := time.Now()
		err := st.Run(ctx, s)
		rep := s.CheckBalances()
		if err == nil {
			err = s.reconciled(rep, st.SupplyOnly)
		}
		sr := StageResult{Name: st.Name, Err: err, Report: rep, Duration: time.Since(start)}
		res.Stages = append(res.Stages, sr)

		if err != nil {
			s.log.Error("stage failed", zap.String("stage", st.Name), zap.Error(err))
			s.printf("%s %s: %v\n", pterm.FgRed.Sprint("✗"), st.Name, err)
			s.printReport(rep)
			break
		}
		s.log.Info("stage passed", zap.String("stage", st.Name), zap.Duration("took", sr.Duration))
		s.pass(st.Name)
		if s.verbose {
			s.printReport(rep)
		}
	}
	return res
}

func (s *Scenario) reconciled(rep *Report, supplyOnly bool) error {
	if supplyOnly {
		if !rep.SupplyReconciled() {
			return ErrUnbalanced
		}
		return nil
	}
	if !rep.Correct {
		return ErrUnbalanced
	}
	return nil
}

func (s *Scenario) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Scenario) pass(name string) {
	s.printf("\n%s %s\n\n", pterm.FgGreen.Sprint("✓"), name)
}

func (s *Scenario) printReport(rep *Report) {
	out, err := rep.Render()
	if err != nil {
		s.log.Warn("render report", zap.Error(err))
		return
	}
	s.printf("%s\n", out)
}

// wait lets every timelock slot at security level 0 elapse.
func (s *Scenario) wait() {
	s.printf("waiting...\n\n")
	s.clock.Advance(3 * time.Second)
}

func (s *Scenario) tx(from common.Address) chain.TxOpts {
	return chain.TxOpts{From: from}
}

func (s *Scenario) holdings(addr common.Address) []uint64 {
	return s.d.Market.PunksOf(addr)
}

// ok discards the receipt of a call expected to succeed.
func ok(_ *chain.Receipt, err error) error { return err }

// reverts requires the call to revert.
func reverts(_ *chain.Receipt, err error) error { return ExpectRevert(err) }

func (s *Scenario) expectPunkOwner(id uint64, want common.Address) error {
	if got := s.d.Market.PunkIndexToAddress(id); got != want {
		return fmt.Errorf("%w: punk %d owned by %s, want %s", ErrAssertion, id, s.label(got), s.label(want))
	}
	return nil
}

func (s *Scenario) label(addr common.Address) string {
	if addr == s.d.Vault.Address() {
		return "vault"
	}
	if l := s.chain.Label(addr); l != "" {
		return l
	}
	return addr.Hex()
}
