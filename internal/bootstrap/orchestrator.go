package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/compose-network/dex-bootstrap/internal/chain"
	"github.com/compose-network/dex-bootstrap/internal/contracts"
	"github.com/compose-network/dex-bootstrap/internal/dex"
	"github.com/compose-network/dex-bootstrap/internal/logger"
	"github.com/compose-network/dex-bootstrap/internal/txflow"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type (
	Deployer interface {
		Deploy(ctx context.Context, artifact contracts.Artifact, from *chain.Signer, constructorArgs ...any) (*contracts.Deployment, error)
	}

	Reader interface {
		PairAddress(ctx context.Context, factory, tokenA, tokenB common.Address) (common.Address, error)
		Reserves(ctx context.Context, pair common.Address) (dex.Reserves, error)
		WrappedNative(ctx context.Context, router common.Address) (common.Address, error)
		Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
		BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	}

	// Binder attaches an ABI to an address that was not deployed by this run.
	Binder func(name contracts.ContractName, address common.Address, contractABI abi.ABI) *contracts.Handle

	Dependencies struct {
		Network    Network
		Signer     *chain.Signer
		Artifacts  contracts.Artifacts
		Deployer   Deployer
		Transactor dex.Transactor
		Reader     Reader
		Bind       Binder
		Now        func() time.Time
	}

	Network struct {
		ChainID  *big.Int
		Endpoint string
	}

	// Orchestrator runs the bootstrap plan against one chain with one signer.
	Orchestrator struct {
		deps   Dependencies
		params Params
		logger *slog.Logger
	}

	// runState carries the refs produced so far and the accumulated result.
	runState struct {
		step      *Step
		addresses map[Ref]common.Address
		handles   map[Ref]*contracts.Handle
		result    *Result
	}
)

func NewOrchestrator(deps Dependencies, params Params) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{
		deps:   deps,
		params: params,
		logger: logger.Named("bootstrap"),
	}
}

// Plan returns the step sequence for the configured parameters.
func (o *Orchestrator) Plan() Plan {
	approveRequires := []Ref{RefSigner, RefTokenA, RefTokenB, RefRouter}
	if o.params.usesWrappedNative() {
		approveRequires = append(approveRequires, RefWrappedNative)
	}

	return Plan{
		Inputs: []Ref{RefSigner, RefWrappedNative},
		Steps: []Step{
			{
				Name:      "deploy-factory",
				Requires:  []Ref{RefSigner},
				Produces:  []Ref{RefFactory},
				OnFailure: FailureHalts,
				run:       o.deployFactory,
			},
			{
				Name:      "deploy-router",
				Requires:  []Ref{RefFactory, RefWrappedNative},
				Produces:  []Ref{RefRouter},
				OnFailure: FailureHalts,
				run:       o.deployRouter,
			},
			{
				Name:      "deploy-tokens",
				Requires:  []Ref{RefSigner},
				Produces:  []Ref{RefTokenA, RefTokenB},
				OnFailure: FailureHalts,
				run:       o.deployTokens,
			},
			{
				Name:      "approve",
				Requires:  approveRequires,
				OnFailure: FailureDiagnosed,
				run:       o.approve,
			},
			{
				Name:      "add-liquidity",
				Requires:  []Ref{RefSigner, RefRouter, RefTokenA, RefTokenB},
				OnFailure: FailureDiagnosed,
				run:       o.addLiquidity,
			},
			{
				Name:      "verify",
				Requires:  []Ref{RefFactory, RefTokenA, RefTokenB},
				Produces:  []Ref{RefPair},
				OnFailure: FailureHalts,
				run:       o.verify,
			},
		},
	}
}

// Run validates the plan and executes its steps in order. Deployment
// failures stop the run; approval and liquidity failures are diagnosed and
// recorded in the result. The partial result is returned with any error.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	plan := o.Plan()
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	state := &runState{
		addresses: map[Ref]common.Address{
			RefSigner:        o.deps.Signer.Address,
			RefWrappedNative: o.params.WrappedNative,
		},
		handles: make(map[Ref]*contracts.Handle),
		result: &Result{
			ChainID:  o.deps.Network.ChainID,
			Endpoint: o.deps.Network.Endpoint,
			Signer:   o.deps.Signer.Address,
		},
	}

	for i := range plan.Steps {
		step := &plan.Steps[i]
		log := o.logger.With("step", step.Name).With("index", i+1)
		log.Info("starting step")

		state.step = step
		if err := step.run(ctx, state); err != nil {
			log.With("err", err.Error()).Error("step failed")
			return state.result, fmt.Errorf("step %s failed: %w", step.Name, err)
		}

		for _, ref := range step.Produces {
			if _, ok := state.addresses[ref]; !ok {
				return state.result, fmt.Errorf("step %s did not produce %s", step.Name, ref)
			}
		}

		log.Info("step completed")
	}

	state.result.Succeeded = true
	o.logger.
		With("liquidity_added", state.result.LiquidityAdded()).
		Info("bootstrap finished")

	return state.result, nil
}

func (o *Orchestrator) deployFactory(ctx context.Context, s *runState) error {
	signer, err := s.address(RefSigner)
	if err != nil {
		return err
	}
	return o.deploy(ctx, s, RefFactory, contracts.ContractNameFactory, signer)
}

func (o *Orchestrator) deployRouter(ctx context.Context, s *runState) error {
	factory, err := s.address(RefFactory)
	if err != nil {
		return err
	}
	wrappedNative, err := s.address(RefWrappedNative)
	if err != nil {
		return err
	}

	if err := o.deploy(ctx, s, RefRouter, contracts.ContractNameRouter, factory, wrappedNative); err != nil {
		return err
	}

	reported, err := o.deps.Reader.WrappedNative(ctx, s.addresses[RefRouter])
	if err != nil {
		return err
	}

	log := o.logger.With("wrapped_native", reported.Hex())
	if reported != wrappedNative {
		log.With("configured", wrappedNative.Hex()).Warn("router reports a different wrapped-native token")
	} else {
		log.Info("router wrapped-native token")
	}

	return nil
}

func (o *Orchestrator) deployTokens(ctx context.Context, s *runState) error {
	signer, err := s.address(RefSigner)
	if err != nil {
		return err
	}

	tokens := []struct {
		ref    Ref
		params TokenParams
	}{
		{RefTokenA, o.params.TokenA},
		{RefTokenB, o.params.TokenB},
	}
	for _, token := range tokens {
		if err := o.deploy(ctx, s, token.ref, contracts.ContractNameToken,
			token.params.Name, token.params.Symbol, token.params.Supply, signer); err != nil {
			return fmt.Errorf("%s: %w", token.ref, err)
		}
		o.logBalance(ctx, token.ref, s.addresses[token.ref], signer)
	}

	return nil
}

func (o *Orchestrator) logBalance(ctx context.Context, ref Ref, token, account common.Address) {
	log := o.logger.With("token", ref).With("account", account.Hex())

	balance, err := o.deps.Reader.BalanceOf(ctx, token, account)
	if err != nil {
		log.With("err", err.Error()).Warn("failed to read token balance")
		return
	}

	log.With("balance", dex.FormatUnits(balance)).Info("minted balance")
}

func (o *Orchestrator) deploy(ctx context.Context, s *runState, ref Ref, name contracts.ContractName, constructorArgs ...any) error {
	artifact, err := o.deps.Artifacts.Get(name)
	if err != nil {
		return err
	}

	deployment, err := o.deps.Deployer.Deploy(ctx, artifact, o.deps.Signer, constructorArgs...)
	if err != nil {
		return err
	}

	s.produce(ref, deployment.Handle)
	s.result.Contracts = append(s.result.Contracts, ContractRecord{
		Ref:      ref,
		Contract: name,
		Address:  deployment.Handle.Address,
		TxHash:   deployment.TxHash,
		GasUsed:  deployment.Receipt.GasUsed,
	})

	o.logger.
		With("ref", ref).
		With("address", deployment.Handle.Address.Hex()).
		Info("contract address")

	return nil
}

type approval struct {
	label   string
	token   *contracts.Handle
	spender common.Address
	amount  *big.Int
}

func (o *Orchestrator) approve(ctx context.Context, s *runState) error {
	tokenA, err := s.handle(RefTokenA)
	if err != nil {
		return err
	}
	tokenB, err := s.handle(RefTokenB)
	if err != nil {
		return err
	}
	router, err := s.address(RefRouter)
	if err != nil {
		return err
	}

	approvals := []approval{
		{label: "approve token-a for router", token: tokenA, spender: router, amount: o.params.LiquidityAmountA},
		{label: "approve token-b for router", token: tokenB, spender: router, amount: o.params.LiquidityAmountB},
	}

	if o.params.usesWrappedNative() {
		wrappedNative, err := o.wrappedNativeHandle(s)
		if err != nil {
			return err
		}
		if o.params.LegacySelfApproval {
			approvals = append(approvals, approval{
				label:   "approve wrapped-native for itself",
				token:   wrappedNative,
				spender: wrappedNative.Address,
				amount:  o.params.LiquidityAmountA,
			})
		}
		if o.params.ApproveWrappedNative {
			approvals = append(approvals, approval{
				label:   "approve wrapped-native for router",
				token:   wrappedNative,
				spender: router,
				amount:  o.params.LiquidityAmountA,
			})
		}
	}

	for _, a := range approvals {
		outcome := dex.Approve(ctx, o.deps.Transactor, a.token, a.spender, a.amount, o.deps.Signer)
		s.record(a.label, outcome)
	}

	o.logAllowance(ctx, "token-a", tokenA.Address, router)
	o.logAllowance(ctx, "token-b", tokenB.Address, router)

	return nil
}

func (o *Orchestrator) wrappedNativeHandle(s *runState) (*contracts.Handle, error) {
	address, err := s.address(RefWrappedNative)
	if err != nil {
		return nil, err
	}
	artifact, err := o.deps.Artifacts.Get(contracts.ContractNameWrappedNative)
	if err != nil {
		return nil, err
	}
	return o.deps.Bind(contracts.ContractNameWrappedNative, address, artifact.ABI), nil
}

func (o *Orchestrator) logAllowance(ctx context.Context, ref Ref, token, spender common.Address) {
	log := o.logger.With("token", ref).With("spender", spender.Hex())

	allowance, err := o.deps.Reader.Allowance(ctx, token, o.deps.Signer.Address, spender)
	if err != nil {
		log.With("err", err.Error()).Warn("failed to read allowance")
		return
	}

	log.With("allowance", dex.FormatUnits(allowance)).Info("current allowance")
}

func (o *Orchestrator) addLiquidity(ctx context.Context, s *runState) error {
	router, err := s.handle(RefRouter)
	if err != nil {
		return err
	}
	tokenA, err := s.address(RefTokenA)
	if err != nil {
		return err
	}
	tokenB, err := s.address(RefTokenB)
	if err != nil {
		return err
	}
	signer, err := s.address(RefSigner)
	if err != nil {
		return err
	}

	deadline := o.deps.Now().Add(o.params.DeadlineOffset).Unix()
	params := dex.LiquidityParams{
		TokenA:         tokenA,
		TokenB:         tokenB,
		AmountADesired: o.params.LiquidityAmountA,
		AmountBDesired: o.params.LiquidityAmountB,
		AmountAMin:     new(big.Int),
		AmountBMin:     new(big.Int),
		To:             signer,
		Deadline:       big.NewInt(deadline),
	}

	o.logger.
		With("amount_a", dex.FormatUnits(params.AmountADesired)).
		With("amount_b", dex.FormatUnits(params.AmountBDesired)).
		With("deadline", deadline).
		Info("adding liquidity")

	outcome := dex.AddLiquidity(ctx, o.deps.Transactor, router, params, o.deps.Signer)
	s.record("add liquidity", outcome)

	return nil
}

func (o *Orchestrator) verify(ctx context.Context, s *runState) error {
	factory, err := s.address(RefFactory)
	if err != nil {
		return err
	}
	tokenA, err := s.address(RefTokenA)
	if err != nil {
		return err
	}
	tokenB, err := s.address(RefTokenB)
	if err != nil {
		return err
	}

	pair, err := o.deps.Reader.PairAddress(ctx, factory, tokenA, tokenB)
	if err != nil {
		return err
	}
	s.addresses[RefPair] = pair

	reserves, err := o.deps.Reader.Reserves(ctx, pair)
	if err != nil {
		return err
	}

	record := PairRecord{
		Address:  pair,
		Reserves: reserves,
		ReserveA: reserveOf(reserves, tokenA),
		ReserveB: reserveOf(reserves, tokenB),
	}

	if artifact, err := o.deps.Artifacts.Get(contracts.ContractNamePair); err == nil && len(artifact.Bytecode) > 0 {
		record.InitCodeHash = dex.InitCodeHash(artifact.Bytecode)
		record.Predicted = dex.PredictPairAddress(factory, tokenA, tokenB, artifact.Bytecode)
		if pair != (common.Address{}) && pair != record.Predicted {
			o.logger.
				With("pair", pair.Hex()).
				With("predicted", record.Predicted.Hex()).
				With("init_code_hash", record.InitCodeHash.Hex()).
				Warn("pair address differs from the pair artifact's CREATE2 address; router and pair bytecode may not match")
		}
	}
	s.result.Pair = record

	o.logger.
		With("token_a", tokenA.Hex()).
		With("token_b", tokenB.Hex()).
		With("pair", pair.Hex()).
		With("reserve_a", dex.FormatUnits(record.ReserveA)).
		With("reserve_b", dex.FormatUnits(record.ReserveB)).
		Info("pair reserves")

	return nil
}

// reserveOf treats a token the pair does not know (no pair yet) as holding nothing.
func reserveOf(reserves dex.Reserves, token common.Address) *big.Int {
	if reserve := reserves.For(token); reserve != nil {
		return reserve
	}
	return new(big.Int)
}

func (s *runState) require(ref Ref) error {
	for _, allowed := range s.step.Requires {
		if allowed == ref {
			return nil
		}
	}
	return fmt.Errorf("step %s reads %s without declaring it", s.step.Name, ref)
}

func (s *runState) address(ref Ref) (common.Address, error) {
	if err := s.require(ref); err != nil {
		return common.Address{}, err
	}
	address, ok := s.addresses[ref]
	if !ok {
		return common.Address{}, fmt.Errorf("%s has not been produced", ref)
	}
	return address, nil
}

func (s *runState) handle(ref Ref) (*contracts.Handle, error) {
	if err := s.require(ref); err != nil {
		return nil, err
	}
	handle, ok := s.handles[ref]
	if !ok {
		return nil, fmt.Errorf("%s has not been deployed", ref)
	}
	return handle, nil
}

func (s *runState) produce(ref Ref, handle *contracts.Handle) {
	s.addresses[ref] = handle.Address
	s.handles[ref] = handle
}

func (s *runState) record(label string, outcome txflow.Outcome) {
	s.result.Transactions = append(s.result.Transactions, TransactionRecord{
		Step:    s.step.Name,
		Label:   label,
		Outcome: outcome,
	})
}
