// Package install runs a resolved batch of rows through download and install,
// isolating failures per row.
package install

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jxwalker/resfetch/internal/catalog"
	"github.com/jxwalker/resfetch/internal/downloader"
	ferrors "github.com/jxwalker/resfetch/internal/errors"
	"github.com/jxwalker/resfetch/internal/logging"
	"github.com/jxwalker/resfetch/internal/state"
)

// Downloader fetches a remote row into a temp file owned by the caller.
type Downloader interface {
	DownloadTemp(ctx context.Context, url string) (*downloader.Download, error)
}

// Installer makes src available as library name.
type Installer interface {
	Install(name, src, origin string) (string, error)
}

// History records one entry per attempted row.
type History interface {
	RecordInstall(r state.InstallRow) error
}

type Metrics interface {
	IncInstallsSuccess()
	IncInstallsFailed()
	ObserveInstallSeconds(sec float64)
}

// Notice is the informational message for one failed row.
type Notice struct {
	Row     catalog.Row
	Err     error
	Message string
}

// Report summarizes a finished batch.
type Report struct {
	BatchID   string
	Installed []string
	Failed    []Notice
}

// Pipeline installs rows one after another. Notify, Log, Metrics and State are optional.
type Pipeline struct {
	Downloader Downloader
	Installer  Installer
	Notify     func(Notice)
	Log        *logging.Logger
	Metrics    Metrics
	State      History
}

// Run installs rows in order. A failing row produces exactly one Notice and
// the batch continues with the next row.
func (p *Pipeline) Run(ctx context.Context, rows []catalog.Row) Report {
	rep := Report{BatchID: uuid.NewString()}
	p.Log.Infof("batch %s: installing %d libraries", rep.BatchID, len(rows))
	for _, r := range rows {
		start := time.Now()
		dl, err := p.installRow(ctx, r)
		hist := state.InstallRow{BatchID: rep.BatchID, Name: r.Name, Source: r.Path, Status: state.StatusInstalled}
		if dl != nil {
			hist.Size, hist.SHA256 = dl.Size, dl.SHA256
		}
		if err != nil {
			fe := ferrors.InstallError(r.Name, err)
			n := Notice{Row: r, Err: err, Message: fe.Message}
			rep.Failed = append(rep.Failed, n)
			hist.Status, hist.LastError = state.StatusFailed, err.Error()
			p.Log.Warnf("batch %s: %s failed: %v", rep.BatchID, r.Name, err)
			if p.Metrics != nil {
				p.Metrics.IncInstallsFailed()
			}
			if p.Notify != nil {
				p.Notify(n)
			}
		} else {
			rep.Installed = append(rep.Installed, r.Name)
			if p.Metrics != nil {
				p.Metrics.IncInstallsSuccess()
				p.Metrics.ObserveInstallSeconds(time.Since(start).Seconds())
			}
		}
		if p.State != nil {
			if herr := p.State.RecordInstall(hist); herr != nil {
				p.Log.Warnf("batch %s: recording history for %s: %v", rep.BatchID, r.Name, herr)
			}
		}
	}
	p.Log.Infof("batch %s: %d installed, %d failed", rep.BatchID, len(rep.Installed), len(rep.Failed))
	return rep
}

// Start runs the batch in the background and delivers the report once.
func (p *Pipeline) Start(ctx context.Context, rows []catalog.Row) <-chan Report {
	ch := make(chan Report, 1)
	go func() {
		defer close(ch)
		ch <- p.Run(ctx, rows)
	}()
	return ch
}

func (p *Pipeline) installRow(ctx context.Context, r catalog.Row) (*downloader.Download, error) {
	if !r.IsRemote() {
		p.Log.Debugf("installing %s from %s", r.Name, r.Path)
		_, err := p.Installer.Install(r.Name, r.Path, r.Path)
		return nil, err
	}
	p.Log.Debugf("downloading %s from %s", r.Name, logging.SanitizeURL(r.Path))
	dl, err := p.Downloader.DownloadTemp(ctx, r.Path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := os.Remove(dl.Path); rerr != nil && !os.IsNotExist(rerr) {
			p.Log.Warnf("removing temp file %s: %v", dl.Path, rerr)
		}
	}()
	_, err = p.Installer.Install(r.Name, dl.Path, r.Path)
	return dl, err
}
