// =============================================================================
// Suenlace Generator - Converter Module
// =============================================================================
//
// This module runs one generation batch, from the input spreadsheet (or the
// stored invoice documents) to the Exxxxx.dat posting file.
//
// CONVERSION PIPELINE:
//   1. Load the company year and the template named by the request
//   2. Check the template accounts and the column mapping
//   3. Extract rows from the .xlsx or .csv input
//   4. Normalize values and drop blank rows
//   5. Generate records (bank movements or invoices)
//   6. Encode the records into the posting stream
//   7. Write the output file atomically
//   8. Archive the output and write the advisory log when configured
//   9. Mark emitted invoice documents as generated
//
// Structural problems (template, mapping, empty batch, I/O) stop the batch.
// Row problems become advisories and the batch goes on.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/suenlace/internal/bank"
	"github.com/ginjaninja78/suenlace/internal/config"
	"github.com/ginjaninja78/suenlace/internal/csvparser"
	"github.com/ginjaninja78/suenlace/internal/datwriter"
	"github.com/ginjaninja78/suenlace/internal/invoice"
	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/records"
	"github.com/ginjaninja78/suenlace/internal/store"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/ginjaninja78/suenlace/internal/validation"
	"github.com/ginjaninja78/suenlace/internal/xlsxparser"
	"github.com/ginjaninja78/suenlace/pkg/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// REQUEST AND OPTIONS
// =============================================================================

// Request names what a batch generates.
type Request struct {
	Kind         models.TemplateKind
	CompanyCode  string
	Year         int
	TemplateName string

	// InputPath is the .xlsx or .csv file. Unused with FromDocuments.
	InputPath string

	// Sheet overrides the template's sheet. Empty uses the template's, then
	// the first sheet.
	Sheet string

	// Delimiter is passed to the CSV reader. Empty auto-detects.
	Delimiter string

	// OutputPath is the target file or directory. Empty uses OutputDir.
	OutputPath string

	// FromDocuments emits stored invoice documents instead of a spreadsheet.
	FromDocuments bool

	// PendingOnly restricts FromDocuments to documents not yet generated.
	PendingOnly bool

	// DryRun builds the stream without writing anything.
	DryRun bool
}

// Options holds the output housekeeping settings.
type Options struct {
	OutputDir        string
	ArchiveDir       string
	ArchiveOutputs   bool
	WriteAdvisoryLog bool
	WriteRetries     int
	WriteRetryDelay  time.Duration

	// Now stamps generated documents and archive folders. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig maps the application configuration to converter options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:        cfg.OutputDir,
		ArchiveDir:       cfg.ArchiveDir,
		ArchiveOutputs:   cfg.ArchiveOutputs,
		WriteAdvisoryLog: cfg.WriteAdvisoryLog,
		WriteRetries:     cfg.WriteRetries,
		WriteRetryDelay:  cfg.WriteRetryDelay,
	}
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one batch.
type Result struct {
	// BatchID tags the log lines of the batch.
	BatchID string

	Company  *models.Company
	Template *models.Template

	// OutputFile is the written posting file. Empty on a dry run.
	OutputFile  string
	ArchiveFile string
	AdvisoryLog string

	// Data is the posting stream.
	Data []byte

	// Advisories collects generator and encoder advisories in emission order.
	Advisories types.Advisories

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the batch.
type ProcessingStats struct {
	RowsRead        int
	RowsDropped     int
	Entries         int
	Invoices        int
	Records         int
	DocumentsMarked int
	ProcessingTime  time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs batches against a store.
type Converter struct {
	store      store.Store
	opts       Options
	files      *utils.FileManager
	normalizer *Normalizer
}

// New creates a Converter.
func New(s store.Store, opts Options) *Converter {
	files := utils.NewFileManager(opts.OutputDir, opts.ArchiveDir, opts.ArchiveOutputs)
	if opts.WriteRetries > 0 {
		files.Retries = opts.WriteRetries
	}
	if opts.WriteRetryDelay > 0 {
		files.RetryDelay = opts.WriteRetryDelay
	}
	if opts.Now != nil {
		files.Now = opts.Now
	}
	return &Converter{store: s, opts: opts, files: files, normalizer: DefaultNormalizer()}
}

// generated is what a generator hands back to the pipeline.
type generated struct {
	records    []records.Record
	advisories types.Advisories
	entries    int
	invoices   int
	rendered   []string
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline. The returned result is non-nil whenever the
// batch got as far as generation, so callers can show advisories even when
// the batch produced no records.
func (c *Converter) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res := &Result{BatchID: uuid.NewString()}
	log := logger.WithBatch("converter", res.BatchID)

	if err := checkRequest(req); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 1: COMPANY AND TEMPLATE
	// =========================================================================

	company, err := c.store.GetCompany(ctx, req.CompanyCode, req.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	tpl, err := c.findTemplate(ctx, req)
	if err != nil {
		return nil, err
	}
	res.Company, res.Template = company, tpl

	if err := validation.CheckTemplate(req.Kind, tpl); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 2: GENERATE RECORDS
	// =========================================================================

	var gen *generated
	var docs []models.InvoiceDocument
	if req.FromDocuments {
		docs, err = c.store.ListInvoiceDocuments(ctx, store.DocumentQuery{
			CompanyCode: company.Code,
			Year:        company.Year,
			Kind:        req.Kind,
			PendingOnly: req.PendingOnly,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list invoice documents: %w", err)
		}
		res.Stats.RowsRead = len(docs)
		gen, err = c.generateDocuments(ctx, company, tpl, docs)
	} else {
		var rows []types.Row
		rows, err = c.extract(req, tpl)
		if err != nil {
			return nil, err
		}
		res.Stats.RowsRead = len(rows)
		rows, res.Stats.RowsDropped = c.normalizer.Rows(rows)
		gen, err = c.generateRows(ctx, req.Kind, company, tpl, rows)
	}
	if err != nil {
		return nil, err
	}
	res.Advisories = gen.advisories
	res.Stats.Entries = gen.entries
	res.Stats.Invoices = gen.invoices

	// =========================================================================
	// STEP 3: ENCODE
	// =========================================================================

	stream, err := datwriter.Generate(gen.records, records.Context{CompanyCode: company.Code, Ndig: company.Ndig})
	if err != nil {
		res.Stats.ProcessingTime = time.Since(start)
		return res, err
	}
	res.Data = stream.Data
	res.Stats.Records = stream.Records
	res.Advisories.Merge(stream.Advisories)

	if req.DryRun {
		res.Stats.ProcessingTime = time.Since(start)
		c.logBatch(log, req, res)
		return res, nil
	}

	// =========================================================================
	// STEP 4: WRITE OUTPUT FILE
	// =========================================================================

	outputPath := c.files.OutputPath(req.OutputPath, company.Code)
	if err := c.files.WriteFileAtomic(outputPath, stream.Data); err != nil {
		return res, types.NewError("write posting file", types.ErrIO, err.Error())
	}
	res.OutputFile = outputPath

	// =========================================================================
	// STEP 5: HOUSEKEEPING
	// =========================================================================

	if archive, err := c.files.ArchiveOutputFile(outputPath); err != nil {
		log.Warn().Err(err).Str("output", outputPath).Msg("failed to archive posting file")
	} else {
		res.ArchiveFile = archive
	}
	if c.opts.WriteAdvisoryLog {
		logPath, err := c.files.WriteAdvisoryLog(outputPath, res.Advisories.Messages())
		if err != nil {
			log.Warn().Err(err).Str("output", outputPath).Msg("failed to write advisory log")
		}
		res.AdvisoryLog = logPath
	}

	if req.FromDocuments {
		marked, err := c.markGenerated(ctx, company, docs, gen.rendered)
		if err != nil {
			return res, fmt.Errorf("posting file written but documents not marked: %w", err)
		}
		res.Stats.DocumentsMarked = marked
	}

	res.Stats.ProcessingTime = time.Since(start)
	c.logBatch(log, req, res)
	return res, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func checkRequest(req Request) error {
	if !req.Kind.Valid() {
		return fmt.Errorf("unknown kind %q (want bank, issued or received)", req.Kind)
	}
	if strings.TrimSpace(req.CompanyCode) == "" {
		return errors.New("company code is required")
	}
	if req.FromDocuments && !req.Kind.IsInvoice() {
		return errors.New("documents can only be generated for issued or received invoices")
	}
	if !req.FromDocuments && strings.TrimSpace(req.InputPath) == "" {
		return errors.New("an input file is required")
	}
	return nil
}

// findTemplate picks the template named by the request. Without a name, a
// company year with exactly one template of the kind uses it.
func (c *Converter) findTemplate(ctx context.Context, req Request) (*models.Template, error) {
	tpls, err := c.store.ListTemplates(ctx, req.Kind, req.CompanyCode, req.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	name := strings.TrimSpace(req.TemplateName)
	if name == "" {
		if len(tpls) == 1 {
			return &tpls[0], nil
		}
		return nil, types.NewError("find template", types.ErrNotFound,
			fmt.Sprintf("%d %s templates for %s/%d, name one with --template", len(tpls), req.Kind, req.CompanyCode, req.Year))
	}
	for i := range tpls {
		if strings.EqualFold(strings.TrimSpace(tpls[i].Name), name) {
			return &tpls[i], nil
		}
	}
	return nil, types.NewError("find template", types.ErrNotFound,
		fmt.Sprintf("%s template %q for %s/%d", req.Kind, name, req.CompanyCode, req.Year))
}

// extract reads the input through the template mapping. The extension picks
// the reader; anything that is not CSV is opened as a workbook.
func (c *Converter) extract(req Request, tpl *models.Template) ([]types.Row, error) {
	if err := validation.CheckMapping(req.Kind, tpl.Mapping); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(req.InputPath)) {
	case ".csv", ".txt":
		return csvparser.Extract(req.InputPath, tpl.Mapping, csvparser.Settings{Delimiter: req.Delimiter})
	default:
		sheet := req.Sheet
		if sheet == "" {
			sheet = tpl.Sheet
		}
		return xlsxparser.Extract(req.InputPath, sheet, tpl.Mapping)
	}
}

func (c *Converter) generateRows(ctx context.Context, kind models.TemplateKind, company *models.Company, tpl *models.Template, rows []types.Row) (*generated, error) {
	if kind == models.KindBank {
		batch, err := bank.Generate(rows, tpl, company.Code, company.Ndig)
		if err != nil {
			return nil, err
		}
		return &generated{records: batch.Records, advisories: batch.Advisories, entries: batch.Entries}, nil
	}

	g, err := c.invoiceGenerator(ctx, kind, company, tpl)
	if err != nil {
		return nil, err
	}
	batch := g.FromRows(rows)
	return &generated{records: batch.Records, advisories: batch.Advisories, invoices: batch.Invoices, rendered: batch.Rendered}, nil
}

func (c *Converter) generateDocuments(ctx context.Context, company *models.Company, tpl *models.Template, docs []models.InvoiceDocument) (*generated, error) {
	g, err := c.invoiceGenerator(ctx, tpl.Kind, company, tpl)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*models.InvoiceDocument, len(docs))
	for i := range docs {
		ptrs[i] = &docs[i]
	}
	batch := g.FromDocuments(ptrs)
	return &generated{records: batch.Records, advisories: batch.Advisories, invoices: batch.Invoices, rendered: batch.Rendered}, nil
}

func (c *Converter) invoiceGenerator(ctx context.Context, kind models.TemplateKind, company *models.Company, tpl *models.Template) (*invoice.Generator, error) {
	links, err := c.store.ListThirdPartiesForCompany(ctx, company.Code, company.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load third parties: %w", err)
	}
	t := *tpl
	t.Kind = kind
	return invoice.New(&t, company.Code, company.Ndig, invoice.NewLinks(links))
}

// markGenerated stamps the documents whose invoices reached the stream.
func (c *Converter) markGenerated(ctx context.Context, company *models.Company, docs []models.InvoiceDocument, rendered []string) (int, error) {
	done := make(map[string]bool, len(rendered))
	for _, id := range rendered {
		done[id] = true
	}
	var ids []string
	for i := range docs {
		if done[docs[i].Identity()] {
			ids = append(ids, docs[i].ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return c.store.MarkInvoicesGenerated(ctx, company.Code, ids, c.now(), company.Year)
}

func (c *Converter) now() time.Time {
	if c.opts.Now != nil {
		return c.opts.Now()
	}
	return time.Now()
}

func (c *Converter) logBatch(log zerolog.Logger, req Request, res *Result) {
	log.Info().
		Str("kind", string(req.Kind)).
		Str("company", res.Company.String()).
		Str("template", res.Template.Name).
		Int("rows", res.Stats.RowsRead).
		Int("records", res.Stats.Records).
		Int("advisories", len(res.Advisories)).
		Str("output", res.OutputFile).
		Bool("dry_run", req.DryRun).
		Dur("elapsed", res.Stats.ProcessingTime).
		Msg("batch generated")
}
