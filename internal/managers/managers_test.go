package managers

import (
	"context"
	"errors"

	"github.com/reviewpilot/reviewpilot/pkg/clients/googlebusiness"
)

// fakeProvider implements googlebusiness.ClientInterface with overridable
// behavior per test.
type fakeProvider struct {
	listAccountsFn  func(ctx context.Context, accountID string) ([]googlebusiness.Account, error)
	listLocationsFn func(ctx context.Context, accountID, accountName string) ([]googlebusiness.Location, error)
	listReviewsFn   func(ctx context.Context, accountID, businessID string) ([]googlebusiness.Review, error)
	replyFn         func(ctx context.Context, accountID, businessReviewID, comment string) error
	userInfoFn      func(ctx context.Context, accessToken string) (googlebusiness.UserInfo, error)

	replyCalls int
}

func (f *fakeProvider) ListAccounts(ctx context.Context, accountID string) ([]googlebusiness.Account, error) {
	if f.listAccountsFn == nil {
		return nil, errors.New("not implemented")
	}

	return f.listAccountsFn(ctx, accountID)
}

func (f *fakeProvider) ListLocations(ctx context.Context, accountID, accountName string) ([]googlebusiness.Location, error) {
	if f.listLocationsFn == nil {
		return nil, errors.New("not implemented")
	}

	return f.listLocationsFn(ctx, accountID, accountName)
}

func (f *fakeProvider) ListReviews(ctx context.Context, accountID, businessID string) ([]googlebusiness.Review, error) {
	if f.listReviewsFn == nil {
		return nil, errors.New("not implemented")
	}

	return f.listReviewsFn(ctx, accountID, businessID)
}

func (f *fakeProvider) ReplyToReview(ctx context.Context, accountID, businessReviewID, comment string) error {
	f.replyCalls++

	if f.replyFn == nil {
		return errors.New("not implemented")
	}

	return f.replyFn(ctx, accountID, businessReviewID, comment)
}

func (f *fakeProvider) GetUserInfo(ctx context.Context, accessToken string) (googlebusiness.UserInfo, error) {
	if f.userInfoFn == nil {
		return googlebusiness.UserInfo{}, errors.New("not implemented")
	}

	return f.userInfoFn(ctx, accessToken)
}
