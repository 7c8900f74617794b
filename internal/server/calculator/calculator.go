// Package calculator computes the minimum bank balance a student applicant
// has to show: monthly costs for the stay (capped), plus a return ticket.
package calculator

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/legalize/backoffice/internal/common"
	"github.com/shopspring/decimal"
)

const (
	CurrencyPLN = "PLN"
	CurrencyEUR = "EUR"

	MaxMonthsLiving = 15
)

var (
	LivingAllowance = decimal.NewFromInt(1010)
	TicketBorder    = decimal.NewFromInt(500)
	TicketNoBorder  = decimal.NewFromInt(2500)
)

// Input is the calculator form.
type Input struct {
	TotalEndDate    time.Time       `json:"total_end_date" validate:"required"`
	TuitionFee      decimal.Decimal `json:"tuition_fee"`
	TuitionCurrency string          `json:"tuition_currency" validate:"oneof=PLN EUR"`
	MonthsInPeriod  int             `json:"months_in_period" validate:"gte=0"`
	RentAndBills    decimal.Decimal `json:"rent_and_bills"`
	RentCurrency    string          `json:"rent_currency" validate:"oneof=PLN EUR"`
	NumPeople       int             `json:"num_people" validate:"gte=0"`
	HasBorder       bool            `json:"has_border"`
}

type Result struct {
	EURRate                  decimal.Decimal `json:"eur_rate"`
	RentTotal                decimal.Decimal `json:"rent_total"`
	NumPeople                int             `json:"num_people"`
	RentPerPerson            decimal.Decimal `json:"rent_per_person"`
	TuitionTotal             decimal.Decimal `json:"tuition_total"`
	MonthsInPeriod           int             `json:"months_in_period"`
	MonthlyTuitionCalculated decimal.Decimal `json:"monthly_tuition_calculated"`
	TotalMonthlyCosts        decimal.Decimal `json:"total_monthly_costs"`
	TotalMonthsReal          int             `json:"total_months_real"`
	MonthsForCalc            int             `json:"months_for_calc"`
	IsCapped                 bool            `json:"is_capped"`
	TotalBaseCost            decimal.Decimal `json:"total_base_cost"`
	ReturnTicket             decimal.Decimal `json:"return_ticket"`
	FinalTotalRequired       decimal.Decimal `json:"final_total_required"`
}

var validate = validator.New()

// money rounds half up to whole grosze.
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ToPLN converts amount at eurRate when it is in euro.
func ToPLN(amount decimal.Decimal, currency string, eurRate decimal.Decimal) decimal.Decimal {
	if currency == CurrencyEUR {
		return money(amount.Mul(eurRate))
	}
	return money(amount)
}

// Calculate runs the calculation for the given EUR rate as of today.
func Calculate(in Input, eurRate decimal.Decimal, today time.Time) (*Result, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	if in.TuitionFee.IsNegative() || in.RentAndBills.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount", common.ErrorValidation)
	}
	if !eurRate.IsPositive() {
		return nil, fmt.Errorf("%w: eur rate %s", common.ErrorValidation, eurRate)
	}

	months := max(in.MonthsInPeriod, 1)
	people := max(in.NumPeople, 1)

	monthlyTuition := ToPLN(in.TuitionFee, in.TuitionCurrency, eurRate)
	rent := ToPLN(in.RentAndBills, in.RentCurrency, eurRate)
	rentPerPerson := money(rent.Div(decimal.NewFromInt(int64(people))))

	realMonths := MonthsUntil(today, in.TotalEndDate)
	forCalc := min(realMonths, MaxMonthsLiving)

	ticket := TicketNoBorder
	if in.HasBorder {
		ticket = TicketBorder
	}

	monthly := money(rentPerPerson.Add(monthlyTuition).Add(LivingAllowance))
	base := money(monthly.Mul(decimal.NewFromInt(int64(forCalc))))

	return &Result{
		EURRate:                  eurRate,
		RentTotal:                rent,
		NumPeople:                people,
		RentPerPerson:            rentPerPerson,
		TuitionTotal:             money(monthlyTuition.Mul(decimal.NewFromInt(int64(months)))),
		MonthsInPeriod:           months,
		MonthlyTuitionCalculated: monthlyTuition,
		TotalMonthlyCosts:        monthly,
		TotalMonthsReal:          realMonths,
		MonthsForCalc:            forCalc,
		IsCapped:                 realMonths > MaxMonthsLiving,
		TotalBaseCost:            base,
		ReturnTicket:             ticket,
		FinalTotalRequired:       money(base.Add(ticket)),
	}, nil
}

// MonthsUntil counts calendar months from today's month to end's month,
// both included. An end date in the past counts as one month.
func MonthsUntil(today, end time.Time) int {
	ty, tm, td := today.Date()
	ey, em, ed := end.Date()
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	if e.Before(t) {
		return 1
	}
	return max((ey-ty)*12+int(em-tm)+1, 1)
}
