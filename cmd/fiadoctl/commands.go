package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fiado/internal/balance"
	"fiado/internal/core"
	applog "fiado/internal/log"
	"fiado/internal/services"
	"fiado/internal/store"
	"fiado/internal/store/file"
	"fiado/internal/worker"
)

// runContext is bound into every command's Run method.
type runContext struct {
	ctx           context.Context
	out           io.Writer
	logger        *applog.Logger
	loc           *time.Location
	now           func() time.Time
	openStore     func(ctx context.Context) (store.Store, func() error, error)
	newClassifier func(ctx context.Context) (services.Classifier, error)
}

func (rc *runContext) withStore(fn func(store.Store) error) error {
	s, cleanup, err := rc.openStore(rc.ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cleanup(); cerr != nil {
			rc.logger.Warn("Failed to close store", "error", cerr)
		}
	}()
	return fn(s)
}

func (rc *runContext) today() core.Date {
	now := time.Now
	if rc.now != nil {
		now = rc.now
	}
	loc := rc.loc
	if loc == nil {
		loc = time.Local
	}
	return core.DateOf(now().In(loc))
}

type summaryCmd struct{}

func (c *summaryCmd) Run(rc *runContext) error {
	return rc.withStore(func(s store.Store) error {
		records, err := s.All(rc.ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(rc.out, balance.GenerateSummary(records))
		return err
	})
}

type recordsCmd struct {
	Kind string `help:"Only show this kind (expense, payment or credit)."`
}

func (c *recordsCmd) Run(rc *runContext) error {
	var only core.Kind
	if c.Kind != "" {
		only = core.ParseKind(c.Kind)
		if !only.IsStored() {
			return fmt.Errorf("%w: %q", core.ErrInvalidKind, c.Kind)
		}
	}
	return rc.withStore(func(s store.Store) error {
		records, err := s.All(rc.ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tKIND\tAMOUNT\tCATEGORY\tSENDER\tID")
		for _, r := range records {
			if only != "" && r.Kind != only {
				continue
			}
			amount := "-"
			if r.Amount.Valid {
				amount = balance.FormatAmount(r.Amount.Decimal)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Date, r.Kind, amount, r.CategoryLabel(), r.Sender, r.ID)
		}
		return tw.Flush()
	})
}

type addCmd struct {
	Kind     string `required:"" help:"Record kind." enum:"expense,payment,credit"`
	Amount   string `help:"Amount, e.g. 12000 or 10.50. Omit for a null amount."`
	Category string `help:"Category. Omit for uncategorized."`
	Sender   string `help:"Sender recorded for audit." default:"fiadoctl"`
	Date     string `help:"Date as YYYY-MM-DD. Defaults to today in TIMEZONE."`
}

func (c *addCmd) Run(rc *runContext) error {
	r, err := c.record(rc)
	if err != nil {
		return err
	}
	return rc.withStore(func(s store.Store) error {
		if err := s.Append(rc.ctx, r); err != nil {
			return err
		}
		rc.logger.Debug("Record appended", applog.FieldRecordID, r.ID)
		_, err := fmt.Fprintf(rc.out, "%s %s\n", services.RecordedReply(r.Kind), r.ID)
		return err
	})
}

func (c *addCmd) record(rc *runContext) (core.Record, error) {
	r := core.Record{
		ID:       uuid.NewString(),
		Date:     rc.today(),
		Kind:     core.ParseKind(c.Kind),
		Category: core.StringPtr(c.Category),
		Sender:   c.Sender,
	}
	if c.Date != "" {
		d, err := core.ParseDate(c.Date)
		if err != nil {
			return core.Record{}, err
		}
		r.Date = d
	}
	if c.Amount != "" {
		amt, err := decimal.NewFromString(c.Amount)
		if err != nil {
			return core.Record{}, fmt.Errorf("invalid amount %q: %w", c.Amount, err)
		}
		r.Amount = decimal.NewNullDecimal(amt)
	}
	return r, r.Validate()
}

type classifyCmd struct {
	Text string `arg:"" help:"Message text to classify."`
}

func (c *classifyCmd) Run(rc *runContext) error {
	cl, err := rc.newClassifier(rc.ctx)
	if err != nil {
		return err
	}
	res := cl.Classify(rc.ctx, c.Text)

	amount := "null"
	if res.Amount.Valid {
		amount = res.Amount.Decimal.String()
	}
	category := "null"
	if res.Category != nil {
		category = *res.Category
	}
	_, err = fmt.Fprintf(rc.out, "kind=%s amount=%s category=%s\n", res.Kind, amount, category)
	return err
}

type importCmd struct {
	File string `arg:"" type:"existingfile" help:"JSON array of records, current or legacy format."`
}

func (c *importCmd) Run(rc *runContext) error {
	return rc.withStore(func(s store.Store) error {
		added, err := worker.Backfill(rc.ctx, file.New(c.File), s, rc.logger.Logger)
		if err != nil {
			return fmt.Errorf("import %s: %w", c.File, err)
		}
		_, err = fmt.Fprintf(rc.out, "imported %d records\n", added)
		return err
	})
}
