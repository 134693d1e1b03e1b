package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestLinesTotal(t *testing.T) {
	lines := []OrderLine{
		{ProductID: "P1", Qty: 2, PriceMinor: 1000},
		{ProductID: "P2", Qty: 1, PriceMinor: 2000},
	}
	if got := LinesTotal(lines); got != 4000 {
		t.Fatalf("ожидали 4000, получили %d", got)
	}
	if got := LinesTotal(nil); got != 0 {
		t.Fatalf("ожидали 0 для пустого списка, получили %d", got)
	}
}

func TestValidateInvariants_Valid(t *testing.T) {
	order := Order{
		ID:          "O1",
		CustomerID:  "C1",
		AmountMinor: 2000,
		Lines: []OrderLine{
			{ProductID: "P1", Qty: 2, PriceMinor: 1000},
		},
	}
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("ожидали пустой список замечаний, получили %v", errs)
	}
}

func TestValidateInvariants_Violations(t *testing.T) {
	cases := []struct {
		name  string
		order Order
		want  error
	}{
		{
			name:  "без клиента",
			order: Order{AmountMinor: 1000, Lines: []OrderLine{{Qty: 1, PriceMinor: 1000}}},
			want:  ErrCustomerRequired,
		},
		{
			name:  "без позиций",
			order: Order{CustomerID: "C1"},
			want:  ErrLinesRequired,
		},
		{
			name:  "отрицательная сумма",
			order: Order{CustomerID: "C1", AmountMinor: -1, Lines: []OrderLine{{Qty: 1, PriceMinor: 1000}}},
			want:  ErrAmountNegative,
		},
		{
			name:  "нулевое количество в позиции",
			order: Order{CustomerID: "C1", AmountMinor: 0, Lines: []OrderLine{{Qty: 0, PriceMinor: 1000}}},
			want:  ErrLineQtyInvalid,
		},
		{
			name:  "отрицательная цена в позиции",
			order: Order{CustomerID: "C1", AmountMinor: -1000, Lines: []OrderLine{{Qty: 1, PriceMinor: -1000}}},
			want:  ErrLinePriceInvalid,
		},
		{
			name:  "сумма не сходится с позициями",
			order: Order{CustomerID: "C1", AmountMinor: 999, Lines: []OrderLine{{Qty: 1, PriceMinor: 1000}}},
			want:  ErrAmountMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.order.ValidateInvariants()
			for _, err := range errs {
				if errors.Is(err, tc.want) {
					return
				}
			}
			t.Fatalf("ожидали %v среди %v", tc.want, errs)
		})
	}
}

func TestProductNotFoundError(t *testing.T) {
	err := &ProductNotFoundError{ProductID: "P9"}

	if got, want := err.Error(), "could not find the product P9"; got != want {
		t.Fatalf("ожидали %q, получили %q", want, got)
	}
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatal("ошибка должна разворачиваться в ErrProductNotFound")
	}
	if !IsProductNotFound(fmt.Errorf("resolve products: %w", err)) {
		t.Fatal("IsProductNotFound должен видеть ошибку через обёртку")
	}
	if IsProductNotFound(ErrCustomerNotFound) {
		t.Fatal("IsProductNotFound не должен срабатывать на чужой ошибке")
	}
}

func TestInsufficientStockError(t *testing.T) {
	err := &InsufficientStockError{ProductID: "P2"}

	if got, want := err.Error(), "ordered quantity of the product P2 is not available"; got != want {
		t.Fatalf("ожидали %q, получили %q", want, got)
	}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatal("ошибка должна разворачиваться в ErrInsufficientStock")
	}
	if !IsInsufficientStock(fmt.Errorf("check stock: %w", err)) {
		t.Fatal("IsInsufficientStock должен видеть ошибку через обёртку")
	}
}
