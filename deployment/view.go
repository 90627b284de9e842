package deployment

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abacus-network/abacus-deploy/contracts"
)

// ProxiedView is the on-chain state of a beacon proxied contract.
type ProxiedView struct {
	ProxiedAddress

	// BeaconImplementation is the implementation the beacon currently points at.
	BeaconImplementation string `json:"beaconImplementation"`
	// Upgraded is true when the beacon no longer points at the recorded implementation.
	Upgraded bool `json:"upgraded"`
}

// ReplicaView is the on-chain state of a replica.
type ReplicaView struct {
	ProxiedView

	RemoteDomain uint32 `json:"remoteDomain"`
	Updater      string `json:"updater"`
}

// CoreContractsView is the on-chain state of the core contracts of one chain.
type CoreContractsView struct {
	LocalDomain             uint32                 `json:"localDomain"`
	Owner                   string                 `json:"owner"`
	Updater                 string                 `json:"updater"`
	UpgradeBeaconController string                 `json:"upgradeBeaconController"`
	XAppConnectionManager   string                 `json:"xAppConnectionManager"`
	UpdaterManager          string                 `json:"updaterManager"`
	GovernanceRouter        ProxiedView            `json:"governanceRouter"`
	Home                    ProxiedView            `json:"home"`
	Replicas                map[uint32]ReplicaView `json:"replicas,omitempty"`
}

func viewBeaconProxy[T contracts.Handle](ctx context.Context, b BeaconProxy[T]) (ProxiedView, error) {
	current, err := b.Beacon().Implementation(ctx)
	if err != nil {
		return ProxiedView{}, err
	}

	return ProxiedView{
		ProxiedAddress:       b.ToAddresses(),
		BeaconImplementation: current.Hex(),
		Upgraded:             current != b.Implementation().Address(),
	}, nil
}

// ViewCoreContracts reads the state of every core contract through its proxy.
func ViewCoreContracts(ctx context.Context, core *CoreContracts) (CoreContractsView, error) {
	home := core.Home().Contract()

	localDomain, err := home.LocalDomain(ctx)
	if err != nil {
		return CoreContractsView{}, err
	}
	updater, err := home.Updater(ctx)
	if err != nil {
		return CoreContractsView{}, err
	}
	owner, err := core.UpgradeBeaconController().Owner(ctx)
	if err != nil {
		return CoreContractsView{}, err
	}

	view := CoreContractsView{
		LocalDomain:             localDomain,
		Owner:                   owner.Hex(),
		Updater:                 updater.Hex(),
		UpgradeBeaconController: core.UpgradeBeaconController().Address().Hex(),
		XAppConnectionManager:   core.XAppConnectionManager().Address().Hex(),
		UpdaterManager:          core.UpdaterManager().Address().Hex(),
	}

	if view.GovernanceRouter, err = viewBeaconProxy(ctx, core.GovernanceRouter()); err != nil {
		return CoreContractsView{}, err
	}
	if view.Home, err = viewBeaconProxy(ctx, core.Home()); err != nil {
		return CoreContractsView{}, err
	}

	for domain, r := range core.Replicas().All() {
		pv, verr := viewBeaconProxy(ctx, r)
		if verr != nil {
			return CoreContractsView{}, fmt.Errorf("replica for domain %d: %w", domain, verr)
		}
		remote, verr := r.Contract().RemoteDomain(ctx)
		if verr != nil {
			return CoreContractsView{}, fmt.Errorf("replica for domain %d: %w", domain, verr)
		}
		rupdater, verr := r.Contract().Updater(ctx)
		if verr != nil {
			return CoreContractsView{}, fmt.Errorf("replica for domain %d: %w", domain, verr)
		}

		if view.Replicas == nil {
			view.Replicas = make(map[uint32]ReplicaView, core.Replicas().Len())
		}
		view.Replicas[domain] = ReplicaView{
			ProxiedView:  pv,
			RemoteDomain: remote,
			Updater:      rupdater.Hex(),
		}
	}

	return view, nil
}

// View reads the core contracts of every chain concurrently. The first failure cancels the
// remaining reads.
func (e *Environment) View(ctx context.Context) (map[string]CoreContractsView, error) {
	var (
		mu    sync.Mutex
		views = make(map[string]CoreContractsView, len(e.core))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range e.CoreChains() {
		core := e.core[name]
		g.Go(func() error {
			view, err := ViewCoreContracts(gctx, core)
			if err != nil {
				return fmt.Errorf("chain %s: %w", name, err)
			}

			mu.Lock()
			views[name] = view
			mu.Unlock()

			e.Logger.Debugw("Read core contracts", "chain", name, "localDomain", view.LocalDomain)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return views, nil
}
