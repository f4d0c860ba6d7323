package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mesh-intelligence/xvault/pkg/types"
)

// ErrDeploymentName is returned by SaveDeployment for an unnamed deployment.
var ErrDeploymentName = errors.New("deployment name must not be empty")

// SaveDeployment records d under d.Name, replacing an earlier record with
// the same name.
func (b *Backend) SaveDeployment(ctx context.Context, d types.Deployment) error {
	if d.Name == "" {
		return ErrDeploymentName
	}
	return b.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO deployments (name, profile, deployer, market, token, vault, block, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET
			   profile = excluded.profile, deployer = excluded.deployer, market = excluded.market,
			   token = excluded.token, vault = excluded.vault, block = excluded.block,
			   created_at = excluded.created_at`,
			d.Name, d.Profile, d.Deployer.Hex(), d.Market.Hex(), d.Token.Hex(), d.Vault.Hex(),
			d.Block, d.CreatedAt.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("saving deployment %s: %w", d.Name, err)
		}
		return nil
	})
}

const selectDeployments = `SELECT name, profile, deployer, market, token, vault, block, created_at FROM deployments`

// Deployment returns the deployment saved under name, or ErrNotFound.
func (b *Backend) Deployment(ctx context.Context, name string) (types.Deployment, error) {
	var d types.Deployment
	err := b.read(func(db *sql.DB) error {
		var err error
		d, err = scanDeployment(db.QueryRowContext(ctx, selectDeployments+" WHERE name = ?", name))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: deployment %q", types.ErrNotFound, name)
		}
		return err
	})
	return d, err
}

// Deployments lists every saved deployment, oldest first.
func (b *Backend) Deployments(ctx context.Context) ([]types.Deployment, error) {
	var out []types.Deployment
	err := b.read(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, selectDeployments+" ORDER BY block, name")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanDeployment(rows)
			if err != nil {
				return err
			}
			out = append(out, d)
		}
		return rows.Err()
	})
	return out, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeployment(row scanner) (types.Deployment, error) {
	var (
		d                                       types.Deployment
		deployer, market, token, vault, created string
	)
	if err := row.Scan(&d.Name, &d.Profile, &deployer, &market, &token, &vault, &d.Block, &created); err != nil {
		return d, err
	}
	d.Deployer = common.HexToAddress(deployer)
	d.Market = common.HexToAddress(market)
	d.Token = common.HexToAddress(token)
	d.Vault = common.HexToAddress(vault)
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return d, fmt.Errorf("deployment %s created_at: %w", d.Name, err)
	}
	d.CreatedAt = t
	return d, nil
}
