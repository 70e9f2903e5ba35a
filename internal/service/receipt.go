package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/noah-isme/feedesk-api/internal/academic"
	"github.com/noah-isme/feedesk-api/internal/models"
)

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Fee Payment Receipt</title></head>
<body style="font-family: sans-serif; margin: 48px;">
<h1 style="text-align: center;">Fee Payment Receipt</h1>
<table>
<tr><td>Student Name</td><td>{{.Name}}</td></tr>
<tr><td>Student ID</td><td>{{.StudentID}}</td></tr>
<tr><td>Phone</td><td>{{.Phone}}</td></tr>
<tr><td>Month</td><td>{{.Month}}</td></tr>
<tr><td>Academic Year</td><td>{{.Session}}</td></tr>
<tr><td>Amount Paid</td><td>INR {{.Amount}}</td></tr>
<tr><td>Status</td><td>{{.Status}}</td></tr>
<tr><td>Payment Mode</td><td>{{.Mode}}</td></tr>
<tr><td>Receipt Date</td><td>{{.IssuedAt}}</td></tr>
</table>
<p>This is a system generated receipt.</p>
</body>
</html>
`))

type receiptView struct {
	Name      string
	StudentID uint
	Phone     string
	Month     string
	Session   string
	Amount    int
	Status    string
	Mode      string
	IssuedAt  string
}

// RenderReceipt renders the fee receipt for payment as an HTML document.
func RenderReceipt(student models.Student, payment models.Payment, mode string, issuedAt time.Time) ([]byte, error) {
	view := receiptView{
		Name:      dashIfEmpty(student.Name),
		StudentID: student.ID,
		Phone:     dashIfEmpty(student.Phone),
		Month:     dashIfEmpty(payment.Month),
		Session:   academic.SessionLabel(payment.AcademicYear),
		Amount:    payment.Amount,
		Status:    payment.Status,
		Mode:      mode,
		IssuedAt:  issuedAt.Format("02 Jan 2006, 15:04"),
	}
	if view.Status == "" {
		view.Status = models.PaymentStatusPaid
	}
	if view.Mode == "" {
		view.Mode = models.PaymentModeOnline
	}

	var buffer bytes.Buffer
	if err := receiptTemplate.Execute(&buffer, view); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buffer.Bytes(), nil
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
