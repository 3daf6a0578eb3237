// Package topup applies the per-company token top-up rule to a batch of users.
package topup

import "token-topup-go/internal/models"

// CompanyIndex resolves a user's company reference by id.
// When ids repeat, the first company in list order wins.
type CompanyIndex map[int64]models.Company

func NewCompanyIndex(companies []models.Company) CompanyIndex {
	idx := make(CompanyIndex, len(companies))
	for _, company := range companies {
		if _, seen := idx[company.Id]; !seen {
			idx[company.Id] = company
		}
	}
	return idx
}

// Lookup returns the company with the given id, or false for a dangling reference
func (idx CompanyIndex) Lookup(companyId int64) (models.Company, bool) {
	company, ok := idx[companyId]
	return company, ok
}

// Grant describes one top-up applied to one user in a run.
// Position is the user's index in the input list; ids are not guaranteed unique.
type Grant struct {
	Position     int
	UserId       int64
	CompanyId    int64
	CompanyName  string
	Amount       int64
	TokensBefore int64
	TokensAfter  int64
}

// eligibleCompany returns the company funding the user's top-up, if any.
func (idx CompanyIndex) eligibleCompany(user models.User) (models.Company, bool) {
	company, ok := idx.Lookup(user.CompanyId)
	if !ok || !user.ActiveStatus {
		return models.Company{}, false
	}
	return company, true
}

// Plan lists the grants a run would apply, in user order.
func Plan(users []models.User, companies []models.Company) []Grant {
	idx := NewCompanyIndex(companies)

	var grants []Grant
	for i, user := range users {
		company, ok := idx.eligibleCompany(user)
		if !ok {
			continue
		}
		grants = append(grants, Grant{
			Position:     i,
			UserId:       user.Id,
			CompanyId:    company.Id,
			CompanyName:  company.Name,
			Amount:       company.TopUp,
			TokensBefore: user.Tokens,
			TokensAfter:  user.Tokens + company.TopUp,
		})
	}
	return grants
}

// ApplyTopUps returns a copy of users where every active user with a matching
// company has that company's top-up added to Tokens. The input is not modified.
//
// Applying the result again tops users up a second time; callers run it once per batch.
func ApplyTopUps(users []models.User, companies []models.Company) []models.User {
	idx := NewCompanyIndex(companies)

	updated := make([]models.User, len(users))
	for i, user := range users {
		if company, ok := idx.eligibleCompany(user); ok {
			user.Tokens += company.TopUp
		}
		updated[i] = user
	}
	return updated
}
