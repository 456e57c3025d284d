package purchase

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

func sheet(headers []string, rows ...[]string) types.Sheet {
	s := types.Sheet{Filename: "仕入.csv", Headers: headers}
	for _, r := range rows {
		s.Rows = append(s.Rows, types.NewRawRow(headers, r...))
	}
	return s
}

func newConverter() *Converter {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParse(t *testing.T) {
	headers := []string{"顧客名", "物件名", "種別", "工事番号", "案件種別", "担当者"}
	s := sheet(headers,
		[]string{"山田太郎", "世田谷区土地", "", "K-100", "", "佐藤"},
		[]string{"株式会社ABC", "港区用地", "法人", "K-101", "土地売買", ""},
		[]string{"", "空欄顧客", "", "", "", ""},
		[]string{"鈴木", "渋谷区", "組合", "", "", ""},
		[]string{"顧客名", "物件名", "種別", "", "", ""},
	)

	res, err := newConverter().Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(res.Projects))
	}
	if len(res.Skipped) != 2 {
		t.Errorf("skipped = %v, want 2 reasons", res.Skipped)
	}

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{
			name: "individual defaults",
			got:  res.Projects[0].Record(),
			want: []string{"個人", "山田太郎", "様", "世田谷区土地", "世田谷区土地", "土地仕入", "K-100", "K-100", "", "契約前", "佐藤"},
		},
		{
			name: "corporation",
			got:  res.Projects[1].Record(),
			want: []string{"法人", "株式会社ABC", "御中", "港区用地", "港区用地", "土地売買", "K-101", "K-101", "", "契約前", ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.got) != len(Columns) {
				t.Fatalf("record width = %d, want %d", len(tt.got), len(Columns))
			}
			for i := range tt.want {
				if tt.got[i] != tt.want[i] {
					t.Errorf("%s = %q, want %q", Columns[i], tt.got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseNoRows(t *testing.T) {
	s := sheet([]string{"顧客名", "物件名"}, []string{"", ""}, []string{"田中", ""})
	_, err := newConverter().Parse(s)
	if !errors.Is(err, common.ErrNoExtractableRows) {
		t.Errorf("err = %v, want ErrNoExtractableRows", err)
	}
}

func TestTable(t *testing.T) {
	tbl := Table([]Project{{Type: TypeIndividual, CustomerName: "a", PropertyName: "b", ProjectName: "b", ProjectKind: DefaultKind}})
	if tbl.SheetName != SheetName || len(tbl.Rows) != 1 {
		t.Fatalf("table = %+v", tbl)
	}
	if tbl.Width("案件管理ID") != 20 || tbl.Width("顧客名 敬称") != 8 || tbl.Width("顧客名") != 30 || tbl.Width("案件フロー") != 12 {
		t.Error("unexpected column widths")
	}
}
