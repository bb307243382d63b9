package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/c3s/memberadmin/internal/providers/pdf/escape"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type marotoProvider struct{}

func New() Provider {
	return &marotoProvider{}
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func (p *marotoProvider) GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := newDocument()

	m.AddRow(15,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+data.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+data.InvoiceDate, props.Text{Top: 4}),
		),
		col.New(6),
	)

	m.AddRow(40,
		col.New(6).Add(
			text.New(escape.Text(data.CoopName), props.Text{Style: fontstyle.Bold}),
			text.New(escape.Text(data.CoopAddress), props.Text{Top: 5}),
			text.New(data.CoopEmail, props.Text{Top: 20}),
		),
		col.New(6).Add(
			text.New("Member", props.Text{Style: fontstyle.Bold}),
			text.New(escape.Text(data.MemberName), props.Text{Top: 5}),
			text.New(escape.Text(data.MemberAddress), props.Text{Top: 9}),
			text.New(data.MemberEmail, props.Text{Top: 25}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(15,
		text.NewCol(8, escape.Text(data.Description), props.Text{Size: 9}),
		text.NewCol(4, data.Amount, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(15,
		col.New(8),
		text.NewCol(4, "Total due: "+data.Amount, props.Text{
			Style: fontstyle.Bold,
			Size:  11,
			Align: align.Right,
		}),
	)

	m.AddRow(25,
		text.NewCol(12, data.BankDetails, props.Text{Size: 9}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
