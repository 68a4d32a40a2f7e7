// Package googlebusiness provides a client for the Google Business Profile
// resource APIs. The provider's account listing, location listing, review
// listing and review-reply surfaces exist across two differently-versioned
// endpoint families; the client supports both and falls back between them.
package googlebusiness

import "time"

// Account is one Google Business Profile account visible to the credential.
type Account struct {
	Name        string `json:"name"`
	AccountName string `json:"accountName"`
}

type listAccountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// PostalAddress is the subset of the provider's address object the
// dashboard displays.
type PostalAddress struct {
	FormattedAddress string `json:"formattedAddress"`
}

// Location is one business location under an account.
type Location struct {
	Name         string         `json:"name"`
	Title        string         `json:"title"`
	LanguageCode string         `json:"languageCode"`
	Address      *PostalAddress `json:"address"`
}

type listLocationsResponse struct {
	Locations []Location `json:"locations"`
}

// Reviewer identifies the author of a review.
type Reviewer struct {
	DisplayName     string `json:"displayName"`
	ProfilePhotoURL string `json:"profilePhotoUrl"`
}

// ReviewReply is the business owner's published reply on a review.
type ReviewReply struct {
	Comment    string    `json:"comment"`
	UpdateTime time.Time `json:"updateTime"`
}

// Review is a customer review as returned by the provider.
//
// Name is the full resource name and the identifier the reply endpoint
// requires; ReviewID is the shorter public identifier and is absent on the
// newer endpoint family.
type Review struct {
	Name       string       `json:"name"`
	ReviewID   string       `json:"reviewId"`
	Reviewer   *Reviewer    `json:"reviewer"`
	StarRating string       `json:"starRating"`
	Comment    string       `json:"comment"`
	CreateTime time.Time    `json:"createTime"`
	Reply      *ReviewReply `json:"reviewReply"`
}

// Rating converts the provider's star-rating enum to a numeric rating.
// Unknown values map to 0.
func (r Review) Rating() int {
	switch r.StarRating {
	case "ONE":
		return 1
	case "TWO":
		return 2
	case "THREE":
		return 3
	case "FOUR":
		return 4
	case "FIVE":
		return 5
	default:
		return 0
	}
}

type listReviewsResponse struct {
	Reviews []Review `json:"reviews"`
}

type replyRequest struct {
	Comment string `json:"comment"`
}

// UserInfo is the provider's OpenID userinfo payload used to label a
// connected account in the dashboard.
type UserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
