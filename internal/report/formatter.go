// Package report renders the per-company top-up report.
package report

import (
	"fmt"
	"strings"

	"token-topup-go/internal/models"
)

// CompanySummary is one company block of the report.
type CompanySummary struct {
	Company    models.Company
	Emailed    []models.User
	NotEmailed []models.User
}

// TotalTopUps is the flat estimate printed on the summary line: the company
// top-up times every listed member, whether or not that member was topped up.
func (s CompanySummary) TotalTopUps() int64 {
	return s.Company.TopUp * int64(len(s.Emailed)+len(s.NotEmailed))
}

func emailed(company models.Company, user models.User) bool {
	return company.EmailStatus && user.EmailStatus
}

// Summarize partitions each company's users into emailed and not emailed,
// keeping company order and user order. Users without a matching company are dropped.
func Summarize(users []models.User, companies []models.Company) []CompanySummary {
	summaries := make([]CompanySummary, 0, len(companies))
	for _, company := range companies {
		summary := CompanySummary{Company: company}
		for _, user := range users {
			if user.CompanyId != company.Id {
				continue
			}
			if emailed(company, user) {
				summary.Emailed = append(summary.Emailed, user)
			} else {
				summary.NotEmailed = append(summary.NotEmailed, user)
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// FormatReport renders users (already topped up) grouped by company.
func FormatReport(users []models.User, companies []models.Company) string {
	var b strings.Builder

	for _, summary := range Summarize(users, companies) {
		company := summary.Company
		fmt.Fprintf(&b, "Company Id: %d\n", company.Id)
		fmt.Fprintf(&b, "Company Name: %s\n", company.Name)

		b.WriteString("Users Emailed:\n")
		writeUsers(&b, summary.Emailed, company)

		b.WriteString("Users Not Emailed:\n")
		writeUsers(&b, summary.NotEmailed, company)

		fmt.Fprintf(&b, "Total amount of top ups for %s: %d\n\n", company.Name, summary.TotalTopUps())
	}

	return strings.TrimSpace(b.String())
}

// writeUsers prints one block per user. The previous balance is always
// derived as tokens - top_up, including for users who were not topped up.
func writeUsers(b *strings.Builder, users []models.User, company models.Company) {
	for _, user := range users {
		fmt.Fprintf(b, "\t%s, %s, %s\n", user.LastName, user.FirstName, user.Email)
		fmt.Fprintf(b, "\t  Previous Token Balance: %d\n", user.Tokens-company.TopUp)
		fmt.Fprintf(b, "\t  New Token Balance: %d\n", user.Tokens)
	}
}
