package fat12

import (
	stderrors "errors"
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/logging"
)

// SkipRest can be returned by a [ChainVisitor] to end a walk early without
// reporting an error.
var SkipRest = stderrors.New("skip the rest of the cluster chain")

// ChainVisitor is called once for every cluster in a chain, in order.
type ChainVisitor func(cluster ClusterID) error

// chainBound gives the most clusters a walk may visit before the chain is
// declared corrupt.
func (v *Volume) chainBound() uint32 {
	if v.options.MaxChainLength > 0 {
		return v.options.MaxChainLength
	}
	return v.boot.TotalClusters
}

func (v *Volume) isDataCluster(cluster ClusterID) bool {
	return cluster >= FirstDataCluster && cluster <= v.boot.MaxCluster()
}

// WalkChain follows the cluster chain beginning at `start`, calling `visit`
// for each cluster until the end-of-chain marker.
//
// Every walk is bounded: a chain that revisits a cluster or is longer than the
// volume's cluster count (or [Options.MaxChainLength]) fails with
// [errors.ErrInvalidFormat], as does a chain that runs into a free or bad
// cluster or points outside the data region. An error returned by `visit`
// stops the walk and is returned as is, except for [SkipRest].
func (v *Volume) WalkChain(start ClusterID, visit ChainVisitor) error {
	err := v.checkOpen()
	if err != nil {
		return err
	}
	if !v.isDataCluster(start) {
		return errors.ErrOutOfRange.WithMessage(
			fmt.Sprintf("chain can't start at cluster %d", start))
	}

	bound := v.chainBound()
	visited := bitmap.Bitmap(bitmap.NewSlice(int(v.boot.MaxCluster()) + 1))
	cluster := start

	for steps := uint32(0); ; steps++ {
		if steps >= bound {
			logging.Logger().Warnw(
				"cluster chain exceeds the maximum length", "start", start, "bound", bound)
			return errors.ErrInvalidFormat.WithMessage(
				fmt.Sprintf(
					"chain starting at cluster %d is longer than %d clusters", start, bound))
		}
		if visited.Get(int(cluster)) {
			logging.Logger().Warnw(
				"cluster chain loops back on itself", "start", start, "cluster", cluster)
			return errors.ErrInvalidFormat.WithMessage(
				fmt.Sprintf(
					"chain starting at cluster %d revisits cluster %d", start, cluster))
		}
		visited.Set(int(cluster), true)

		err = visit(cluster)
		if err != nil {
			if stderrors.Is(err, SkipRest) {
				return nil
			}
			return err
		}

		link, err := v.table.NextCluster(cluster)
		if err != nil {
			return errors.ErrInvalidFormat.Wrap(err)
		}

		switch link.Kind {
		case LinkEndOfChain:
			return nil
		case LinkNext:
			if !v.isDataCluster(link.Next) {
				return errors.ErrInvalidFormat.WithMessage(
					fmt.Sprintf(
						"cluster %d links to cluster %d, outside the data region",
						cluster,
						link.Next))
			}
			cluster = link.Next
		default:
			logging.Logger().Warnw(
				"cluster chain runs into a cluster that isn't in use",
				"start", start, "cluster", cluster, "kind", link.Kind.String())
			return errors.ErrInvalidFormat.WithMessage(
				fmt.Sprintf(
					"cluster %d in chain starting at %d is marked %s",
					cluster,
					start,
					link.Kind))
		}
	}
}

// ChainClusters returns every cluster in the chain beginning at `start`.
func (v *Volume) ChainClusters(start ClusterID) ([]ClusterID, error) {
	clusters := []ClusterID{}
	err := v.WalkChain(
		start,
		func(cluster ClusterID) error {
			clusters = append(clusters, cluster)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return clusters, nil
}
