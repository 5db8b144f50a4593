package render

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/props"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/invoice/domain"
)

// Renderer produces the printable PDF handed to customers.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

func (r *Renderer) Render(inv *domain.Invoice, customer *billingdomain.CustomerProfile) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(8, "WaveLink Communications Ltd.", props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, "INVOICE", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(8, "House 42, Road 11, Banani, Dhaka 1213", props.Text{Size: 9}),
		text.NewCol(4, inv.Number, props.Text{Size: 11, Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(12, "Issued "+inv.IssuedAt.Format("02 Jan 2006"), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(4, line.NewCol(12))

	customerName := ""
	if customer != nil {
		customerName = customer.Name
	}
	m.AddRow(10,
		text.NewCol(12, "Billed to: "+customerName, props.Text{Size: 11, Top: 2}),
	)
	m.AddRow(10,
		text.NewCol(9, inv.Description, props.Text{Size: 10, Top: 2}),
		text.NewCol(3, fmt.Sprintf("BDT %s", inv.Amount.StringFixed(2)), props.Text{Size: 10, Top: 2, Align: align.Right}),
	)
	m.AddRow(4, line.NewCol(12))
	m.AddRow(10,
		text.NewCol(9, "Total", props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}),
		text.NewCol(3, fmt.Sprintf("BDT %s", inv.Amount.StringFixed(2)), props.Text{Size: 11, Style: fontstyle.Bold, Top: 2, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}
	return doc.GetBytes(), nil
}
