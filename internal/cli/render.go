package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"chitieu/internal/core"
	"chitieu/internal/pagination"
	"chitieu/internal/services"
)

const barWidth = 30

// Renderer prints session views to a terminal.
type Renderer struct {
	out io.Writer
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) Daily(v services.DailyView) error {
	return r.transactionPage(fmt.Sprintf("Giao dịch ngày %s", v.Date), v.Summary, v.Transactions, v.Window, v.Cached)
}

func (r *Renderer) Monthly(v services.MonthlyView) error {
	title := fmt.Sprintf("Giao dịch tháng %02d/%d", v.Month, v.Year)
	return r.transactionPage(title, v.Summary, v.Transactions, v.Window, v.Cached)
}

func (r *Renderer) Search(v services.SearchView) error {
	title := fmt.Sprintf("Kết quả tìm kiếm (%d giao dịch)", v.TotalTransactions)
	fmt.Fprintln(r.out, r.title(title, v.Cached))
	if len(v.Transactions) == 0 {
		fmt.Fprintln(r.out, SubtleStyle.Render("Không tìm thấy giao dịch nào."))
		return nil
	}
	if err := r.table(v.Transactions); err != nil {
		return err
	}
	fmt.Fprintln(r.out, footer(v.Window))
	return nil
}

// Chart prints the monthly income/expense figures and the expense share of
// each category as bars.
func (r *Renderer) Chart(v services.ChartView) error {
	d := v.Data
	fmt.Fprintln(r.out, r.title(fmt.Sprintf("Biểu đồ tháng %d - %d", d.StartMonth, d.EndMonth), v.Cached))

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", HeaderStyle.Render("Tháng"), HeaderStyle.Render("Thu nhập"), HeaderStyle.Render("Chi tiêu"))
	for _, p := range d.MonthlyData {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.Month, IncomeStyle.Render(p.Income.String()), ExpenseStyle.Render(p.Expense.String()))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(r.out, summaryBox(v.Summary))

	if len(d.ExpenseCategoryData) == 0 {
		fmt.Fprintln(r.out, SubtleStyle.Render("Không có chi tiêu trong khoảng này."))
		return nil
	}
	var total core.Dong
	for _, c := range d.ExpenseCategoryData {
		total += c.Amount
	}
	fmt.Fprintln(r.out)
	w = tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, c := range d.ExpenseCategoryData {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Category, bar(c.Amount, total), percent(c.Amount, total), c.Amount.String())
	}
	return w.Flush()
}

func (r *Renderer) CategoryDetail(v services.CategoryDetailView) error {
	title := fmt.Sprintf("%s, tháng %d - %d", v.Category, v.StartMonth, v.EndMonth)
	fmt.Fprintln(r.out, r.title(title, v.Cached))

	var peak core.Dong
	for _, m := range v.ChartData {
		if m.Amount > peak {
			peak = m.Amount
		}
	}
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, m := range v.ChartData {
		fmt.Fprintf(w, "Tháng %d\t%s\t%s\n", m.Month, bar(m.Amount, peak), m.Amount.String())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(v.Transactions) == 0 {
		return nil
	}
	fmt.Fprintln(r.out)
	if err := r.table(v.Transactions); err != nil {
		return err
	}
	fmt.Fprintln(r.out, footer(v.Window))
	return nil
}

func (r *Renderer) Keywords(sets []core.KeywordSet) error {
	fmt.Fprintln(r.out, TitleStyle.Render("Từ khóa theo danh mục"))
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, s := range sets {
		kws := s.Keywords
		if s.Count() == 0 {
			kws = SubtleStyle.Render("(trống)")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", s.Category, s.Count(), kws)
	}
	return w.Flush()
}

// Mutation confirms a change and re-prints the refreshed view, if any.
func (r *Renderer) Mutation(verb string, res services.MutationResult) error {
	tx := res.Transaction
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s %s %s (%s)", verb, tx.Date, tx.Amount, tx.Category)))
	if res.RefreshError != "" {
		fmt.Fprintln(r.out, FormatError("Không tải lại được: "+res.RefreshError))
	}
	if res.Refreshed == nil {
		return nil
	}
	return r.Page(*res.Refreshed)
}

// Page prints whichever view a page move produced.
func (r *Renderer) Page(p services.PageResult) error {
	switch {
	case p.Daily != nil:
		return r.Daily(*p.Daily)
	case p.Monthly != nil:
		return r.Monthly(*p.Monthly)
	case p.Search != nil:
		return r.Search(*p.Search)
	case p.Detail != nil:
		return r.CategoryDetail(*p.Detail)
	}
	return nil
}

// Error prints err as a notification with its kind.
func (r *Renderer) Error(err error) {
	kind := services.Kind(err)
	fmt.Fprintln(r.out, FormatError(fmt.Sprintf("%s (%s)", err.Error(), kind)))
}

func (r *Renderer) title(s string, cached bool) string {
	t := TitleStyle.Render(s)
	if cached {
		t += " " + SubtleStyle.Render("[cache]")
	}
	return t
}

func (r *Renderer) transactionPage(title string, sum core.Summary, txs []core.Transaction, win pagination.Window, cached bool) error {
	fmt.Fprintln(r.out, r.title(title, cached))
	fmt.Fprintln(r.out, summaryBox(sum))
	if len(txs) == 0 {
		fmt.Fprintln(r.out, SubtleStyle.Render("Không có giao dịch nào."))
		return nil
	}
	if err := r.table(txs); err != nil {
		return err
	}
	fmt.Fprintln(r.out, footer(win))
	return nil
}

func (r *Renderer) table(txs []core.Transaction) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("Ngày"),
		HeaderStyle.Render("Số tiền"),
		HeaderStyle.Render("Danh mục"),
		HeaderStyle.Render("Nội dung"))
	for _, t := range txs {
		amount := ExpenseStyle.Render("-" + t.Amount.String())
		if t.Type == core.Income {
			amount = IncomeStyle.Render("+" + t.Amount.String())
		}
		content := t.Content
		if t.Note != "" {
			content += " " + SubtleStyle.Render("("+t.Note+")")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Date, amount, t.Category, content)
	}
	return w.Flush()
}

func summaryBox(s core.Summary) string {
	balance := IncomeStyle.Render(s.Balance.String())
	if s.Balance < 0 {
		balance = ExpenseStyle.Render(s.Balance.String())
	}
	return SummaryBoxStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		"Thu nhập: "+IncomeStyle.Render(s.Income.String()),
		"   Chi tiêu: "+ExpenseStyle.Render(s.Expense.String()),
		"   Số dư: "+balance,
	))
}

func footer(w pagination.Window) string {
	if w.TotalPages <= 1 {
		return SubtleStyle.Render(fmt.Sprintf("%d giao dịch", w.TotalItems))
	}
	nav := make([]string, 0, 2)
	if w.HasPrev {
		nav = append(nav, "prev")
	}
	if w.HasNext {
		nav = append(nav, "next")
	}
	return SubtleStyle.Render(fmt.Sprintf("Trang %d/%d, %d giao dịch [%s]",
		w.Page, w.TotalPages, w.TotalItems, strings.Join(nav, " ")))
}

func bar(v, peak core.Dong) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := int(int64(v) * barWidth / int64(peak))
	if n == 0 {
		n = 1
	}
	return ExpenseStyle.Render(strings.Repeat("█", n))
}

func percent(v, total core.Dong) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(v)*100/float64(total))
}
