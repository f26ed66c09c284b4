package slot

import "github.com/udisondev/floclient/internal/model"

func downloadStatus(done, occupied bool) model.SlotDownloadStatus {
	if !occupied {
		return model.SlotDownloadNone
	}
	if done {
		return model.SlotDownloadComplete
	}
	return model.SlotDownloadInProgress
}
