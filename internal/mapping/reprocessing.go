package mapping

import "context"

// ReprocessingPolicy is the seam §9's remapping-trigger question resolves
// to: the version engine only raises remapping_flag/remapping_reason
// (§4.8) and stops there, since whether a flagged version triggers full
// reprocessing of every customer taxonomy or only the nodes it affected is
// a downstream policy decision, not part of this engine's contract.
//
// NoopReprocessingPolicy is the default — it records that a version was
// flagged and does nothing further, leaving remapping_status at "pending"
// until an operator or a future scheduler acts on it.
type ReprocessingPolicy interface {
	// VersionFlagged is called once a version closes with RemappingFlag
	// set. reason is the version's RemappingReason.
	VersionFlagged(ctx context.Context, taxonomyID int64, versionNumber int, reason string) error
}

// NoopReprocessingPolicy implements ReprocessingPolicy with no action.
type NoopReprocessingPolicy struct{}

func (NoopReprocessingPolicy) VersionFlagged(ctx context.Context, taxonomyID int64, versionNumber int, reason string) error {
	return nil
}

var _ ReprocessingPolicy = NoopReprocessingPolicy{}
