package cmd

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/ingest"
	"github.com/yeisme/kitvault/pkg/kit"
)

var (
	ingestKitID  string
	ingestDryRun bool

	ingestCmd = &cobra.Command{
		Use:   "ingest MANIFEST",
		Short: "organize files from a manifest and upload them to a kit",
		Long: `Reads a YAML/JSON/TOML manifest, classifies and organizes its files, then submits:
modified existing contents are updated first, new files are presigned, uploaded
directly to the object store and registered together with the default full loop.
Nothing is sent when the batch is not fully organized.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}
)

func registerIngestCommands() {
	ingestCmd.Flags().StringVar(&ingestKitID, "kit", "", "existing kit id (overrides the manifest)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "validate and print the batch without submitting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	m, err := ingest.LoadManifest(args[0])
	if err != nil {
		return err
	}

	kitID := ingestKitID
	if kitID == "" {
		kitID = m.Kit
	}

	ctx := cmd.Context()
	api := newClient()
	b := kit.NewBatch()

	if kitID != "" {
		if b, err = ingest.LoadKit(ctx, api, kitID); err != nil {
			return err
		}
	}

	s := kit.NewSession(b, nil)
	defer s.Close()

	report, err := m.Apply(s)
	if err != nil {
		return err
	}

	printBatch(cmd, b)

	for _, p := range report.Pairs {
		names := make([]string, 0, len(p.Members))
		for _, id := range p.Members {
			if r, ok := b.Get(id); ok {
				names = append(names, r.Name)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "pair %s: %v\n", p.Type.Name, names)
	}

	// 本地校验在任何网络请求之前完成
	if err := b.CheckSubmittable(); err != nil {
		return err
	}

	if ingestDryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "dry run: batch is ready to submit")
		return nil
	}

	if kitID == "" {
		name := m.Name
		if name == "" {
			return errors.New("manifest needs a kit id or a name")
		}

		if kitID, err = api.CreateKit(ctx, name); err != nil {
			return err
		}

		fmt.Fprintln(cmd.ErrOrStderr(), "created kit", kitID)
	}

	b.SetKitID(kitID)

	bar := newUploadBar(cmd.ErrOrStderr(), len(b.New()))
	defer bar.finish()

	res, err := ingest.NewOrchestrator(api,
		ingest.WithConcurrency(configs.GetConfig().Client.UploadConcurrency),
		ingest.WithProgress(bar.set),
	).Submit(ctx, b)
	if err != nil {
		return err
	}

	bar.finish()

	fmt.Fprintf(cmd.OutOrStdout(), "kit %s: %d uploaded, %d updated, default %s\n",
		res.KitID, len(res.Uploaded), len(res.Updated), res.DefaultFileName)

	return nil
}

// uploadBar 终端中显示整体上传进度，非终端时不输出.
type uploadBar struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	last int
	done bool
}

func newUploadBar(w io.Writer, files int) *uploadBar {
	if files == 0 || !isTerminal(w) {
		return &uploadBar{}
	}

	return &uploadBar{bar: progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(fmt.Sprintf("uploading %d files", files)),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)}
}

// set 进度回调会被并发调用，只向前推进.
func (u *uploadBar) set(percent float64) {
	if u.bar == nil {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if p := int(percent); p > u.last && !u.done {
		u.last = p
		_ = u.bar.Set(p)
	}
}

func (u *uploadBar) finish() {
	if u.bar == nil {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.done {
		u.done = true
		_ = u.bar.Finish()
	}
}
