package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/client"
	"github.com/yeisme/kitvault/pkg/internal/types"
	"github.com/yeisme/kitvault/pkg/kit"
	"github.com/yeisme/kitvault/pkg/log"
	"github.com/yeisme/kitvault/pkg/metrics"
	"github.com/yeisme/kitvault/pkg/tracing"
)

// API 提交所需的导入接口，*client.Client 实现了它.
type API interface {
	UpdateContent(ctx context.Context, contentID string, req types.UpdateContentRequest) error
	Presign(ctx context.Context, kitID string, files []types.PresignFile) ([]types.PresignedUpload, error)
	Upload(ctx context.Context, presignedURL, contentType string, body io.Reader, size int64, progress client.ProgressFunc) error
	CreateContents(ctx context.Context, kitID string, req types.CreateContentsRequest) error
	UpdateDefault(ctx context.Context, kitID, contentID string) error
}

// Opener 打开新文件的内容，返回 reader 与准确的字节数.
type Opener func(rec kit.FileRecord) (io.ReadCloser, int64, error)

// FileOpener 从 rec.Path 读取本地文件.
func FileOpener(rec kit.FileRecord) (io.ReadCloser, int64, error) {
	if rec.Path == "" {
		return nil, 0, fmt.Errorf("%s: no local path", rec.Name)
	}

	f, err := os.Open(rec.Path)
	if err != nil {
		return nil, 0, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}

	return f, st.Size(), nil
}

// Result 一次成功提交的摘要.
type Result struct {
	KitID string
	// Updated 元数据被更新的已有内容.
	Updated []string
	// Uploaded 直传并登记的新文件.
	Uploaded []types.PresignedUpload
	// DefaultFileName 提交时的默认 Full Loop.
	DefaultFileName string
	// DefaultReconciled 是否通过单独的 PUT 设置了默认.
	DefaultReconciled bool
}

// Orchestrator 执行批次提交.
type Orchestrator struct {
	api         API
	open        Opener
	concurrency int
	onProgress  func(percent float64)
	logger      zerolog.Logger
}

// Option 自定义 Orchestrator.
type Option func(*Orchestrator)

// WithOpener 替换新文件的读取方式.
func WithOpener(fn Opener) Option {
	return func(o *Orchestrator) { o.open = fn }
}

// WithConcurrency 同时进行的直传数量.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithProgress 整体上传进度回调，会被并发调用.
func WithProgress(fn func(percent float64)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// WithLogger 替换日志.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator 创建提交器.
func NewOrchestrator(api API, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:         api,
		open:        FileOpener,
		concurrency: configs.DefaultClientUploadConcurrency,
		logger:      log.Component("ingest"),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Submit 提交批次. 本地校验失败时不发起任何请求；之后的任何网络失败都使整次提交失败，
// 错误为 *SubmitError. 提交开始后不响应 ctx 取消.
func (o *Orchestrator) Submit(ctx context.Context, b *kit.Batch) (res *Result, err error) {
	if b.KitID() == "" {
		return nil, ErrNoKit
	}

	if err := b.CheckSubmittable(); err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)

	ctx, span := tracing.StartSpan(ctx, "ingest.submit", trace.WithAttributes(
		attribute.String("kit.id", b.KitID()),
		attribute.Int("kit.records", b.Len()),
	))
	defer span.End()

	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultFailure

			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		metrics.SubmissionsTotal.WithLabelValues(result).Inc()
	}()

	res = &Result{KitID: b.KitID()}
	if def, ok := b.Default(); ok {
		res.DefaultFileName = def.Name
	}

	if res.Updated, err = o.updateExisting(ctx, b); err != nil {
		return nil, err
	}

	if len(b.New()) > 0 {
		if res.Uploaded, err = o.uploadNew(ctx, b); err != nil {
			return nil, err
		}

		return res, nil
	}

	if b.DefaultChanged() {
		if err = o.reconcileDefault(ctx, b); err != nil {
			return nil, err
		}

		res.DefaultReconciled = true
	}

	return res, nil
}

// updateExisting 并发更新被修改的已有内容，任一失败即整体失败.
func (o *Orchestrator) updateExisting(ctx context.Context, b *kit.Batch) ([]string, error) {
	modified := b.Modified()
	if len(modified) == 0 {
		return nil, nil
	}

	defer observe(PhaseUpdate)()

	ctx, span := tracing.StartSpan(ctx, "ingest.update", trace.WithAttributes(attribute.Int("contents", len(modified))))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)

	for _, rec := range modified {
		g.Go(func() error {
			req := types.UpdateContentRequest{Category: rec.Category, Type: rec.ResolvedType()}
			if err := o.api.UpdateContent(gctx, rec.ContentID, req); err != nil {
				o.logger.Error().Err(err).Str("file", rec.Name).Msg("content update failed")
				return submitError(PhaseUpdate, rec.Name, err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	names := make([]string, 0, len(modified))
	for _, rec := range modified {
		names = append(names, rec.Name)
	}

	o.logger.Info().Str("kit", b.KitID()).Int("updated", len(names)).Msg("existing contents updated")

	return names, nil
}

// uploadNew 预签名、并发直传，全部成功后一次性登记元数据与默认 Full Loop 文件名.
func (o *Orchestrator) uploadNew(ctx context.Context, b *kit.Batch) ([]types.PresignedUpload, error) {
	news := b.New()

	ctx, span := tracing.StartSpan(ctx, "ingest.upload", trace.WithAttributes(attribute.Int("files", len(news))))
	defer span.End()

	uploads, err := o.presign(ctx, b.KitID(), news)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := o.transfer(ctx, news, uploads); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	req := types.CreateContentsRequest{Files: make([]types.NewContentFile, 0, len(news))}
	if def, ok := b.Default(); ok {
		req.DefaultFullLoopFileName = def.Name
	}

	for i, rec := range news {
		req.Files = append(req.Files, types.NewContentFile{
			FileName:    rec.Name,
			ContentType: rec.ContentType(),
			Category:    rec.Category,
			Type:        rec.ResolvedType(),
			Key:         uploads[i].Key,
			URL:         uploads[i].URL,
		})
	}

	done := observe(PhaseRegister)
	err = o.api.CreateContents(ctx, b.KitID(), req)

	done()

	if err != nil {
		o.logger.Error().Err(err).Str("kit", b.KitID()).Msg("content registration failed")
		span.SetStatus(codes.Error, err.Error())

		return nil, submitError(PhaseRegister, "", err)
	}

	o.logger.Info().Str("kit", b.KitID()).Int("uploaded", len(news)).
		Str("default", req.DefaultFullLoopFileName).Msg("new contents registered")

	return uploads, nil
}

// presign 申请上传地址，按文件名对齐到 news 的顺序.
func (o *Orchestrator) presign(ctx context.Context, kitID string, news []kit.FileRecord) ([]types.PresignedUpload, error) {
	defer observe(PhasePresign)()

	files := make([]types.PresignFile, 0, len(news))
	for _, rec := range news {
		files = append(files, types.PresignFile{Filename: rec.Name, ContentType: rec.ContentType(), Size: rec.Size})
	}

	got, err := o.api.Presign(ctx, kitID, files)
	if err != nil {
		o.logger.Error().Err(err).Str("kit", kitID).Msg("presign failed")
		return nil, submitError(PhasePresign, "", err)
	}

	byName := make(map[string]types.PresignedUpload, len(got))
	for _, u := range got {
		byName[u.Filename] = u
	}

	uploads := make([]types.PresignedUpload, len(news))

	for i, rec := range news {
		u, ok := byName[rec.Name]
		if !ok {
			return nil, submitError(PhasePresign, rec.Name, fmt.Errorf("no upload descriptor returned"))
		}

		uploads[i] = u
	}

	o.logger.Info().Str("kit", kitID).Int("files", len(uploads)).Msg("uploads presigned")

	return uploads, nil
}

// transfer 并发直传，第一个失败会取消其余上传.
func (o *Orchestrator) transfer(ctx context.Context, news []kit.FileRecord, uploads []types.PresignedUpload) error {
	defer observe(PhaseUpload)()

	progress := NewProgress(len(news), o.onProgress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, rec := range news {
		g.Go(func() error {
			if err := o.transferOne(gctx, rec, uploads[i], i, progress); err != nil {
				metrics.UploadsTotal.WithLabelValues(metrics.ResultFailure).Inc()
				o.logger.Error().Err(err).Str("file", rec.Name).Msg("upload failed")

				return submitError(PhaseUpload, rec.Name, err)
			}

			metrics.UploadsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

			return nil
		})
	}

	return g.Wait()
}

func (o *Orchestrator) transferOne(ctx context.Context, rec kit.FileRecord, u types.PresignedUpload, idx int, progress *Progress) error {
	body, size, err := o.open(rec)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer body.Close()

	err = o.api.Upload(ctx, u.PresignedURL, rec.ContentType(), body, size, func(sent, total int64) {
		progress.Bytes(idx, sent, total)
	})
	if err != nil {
		return err
	}

	metrics.UploadedBytes.Add(float64(size))
	progress.Update(idx, 100)

	return nil
}

// reconcileDefault 没有新文件但默认变化时，按内容 ID 单独设置默认.
func (o *Orchestrator) reconcileDefault(ctx context.Context, b *kit.Batch) error {
	defer observe(PhaseDefault)()

	def, _ := b.Default()

	ctx, span := tracing.StartSpan(ctx, "ingest.default", trace.WithAttributes(attribute.String("content.id", def.ContentID)))
	defer span.End()

	if err := o.api.UpdateDefault(ctx, b.KitID(), def.ContentID); err != nil {
		o.logger.Error().Err(err).Str("file", def.Name).Msg("default update failed")
		span.SetStatus(codes.Error, err.Error())

		return submitError(PhaseDefault, def.Name, err)
	}

	o.logger.Info().Str("kit", b.KitID()).Str("default", def.Name).Msg("default full loop updated")

	return nil
}

func observe(phase Phase) func() {
	start := time.Now()

	return func() {
		metrics.PhaseDuration.WithLabelValues(string(phase)).Observe(time.Since(start).Seconds())
	}
}
