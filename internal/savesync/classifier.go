package savesync

// SyncAction is the reconciliation verdict for one save location.
type SyncAction int

const (
	ActionNone SyncAction = iota
	ActionDownload
	ActionUpload
	ActionConflict
)

func (a SyncAction) String() string {
	switch a {
	case ActionDownload:
		return "download"
	case ActionUpload:
		return "upload"
	case ActionConflict:
		return "conflict"
	default:
		return "none"
	}
}

// Classifier holds the derived file sets from comparing local and cloud
// state against the last-sync watermark. Cloud tombstones are excluded from
// every cloud-side set.
type Classifier struct {
	UpdatedLocal        []*SyncFile // local files modified after the watermark
	UpdatedCloud        []*SyncFile // cloud files modified after the watermark
	NotExistingLocally  []*SyncFile // cloud files with no local counterpart
	NotExistingRemotely []*SyncFile // local files with no cloud counterpart
}

// Classify compares local and cloud file sets against the watermark.
// Pure; performs no I/O.
func Classify(localFiles, cloudFiles []*SyncFile, watermark float64) *Classifier {
	c := &Classifier{}

	localPaths := make(map[string]struct{}, len(localFiles))
	for _, f := range localFiles {
		localPaths[f.RelativePath] = struct{}{}
	}
	cloudPaths := make(map[string]struct{}, len(cloudFiles))
	for _, f := range cloudFiles {
		cloudPaths[f.RelativePath] = struct{}{}
	}

	for _, f := range localFiles {
		if _, ok := cloudPaths[f.RelativePath]; !ok {
			c.NotExistingRemotely = append(c.NotExistingRemotely, f)
		}
		if f.ModifiedTS > watermark {
			c.UpdatedLocal = append(c.UpdatedLocal, f)
		}
	}

	for _, f := range cloudFiles {
		if f.IsTombstone() {
			continue
		}
		if _, ok := localPaths[f.RelativePath]; !ok {
			c.NotExistingLocally = append(c.NotExistingLocally, f)
		}
		if f.ModifiedTS > watermark {
			c.UpdatedCloud = append(c.UpdatedCloud, f)
		}
	}

	return c
}

// Action decides the sync direction: download when only the cloud side
// changed, upload when only the local side changed, conflict when both did.
func (c *Classifier) Action() SyncAction {
	switch {
	case len(c.UpdatedLocal) == 0 && len(c.UpdatedCloud) > 0:
		return ActionDownload
	case len(c.UpdatedLocal) > 0 && len(c.UpdatedCloud) == 0:
		return ActionUpload
	case len(c.UpdatedLocal) == 0 && len(c.UpdatedCloud) == 0:
		return ActionNone
	default:
		return ActionConflict
	}
}
