package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackinsure/rainyday/internal/core/domain"
	"github.com/blackinsure/rainyday/internal/core/port"
	"github.com/blackinsure/rainyday/internal/repository"
)

func errNotFoundForTest() error { return repository.ErrNotFound }

type mockHolderRepository struct {
	createErr    error
	createCalls  int
	createdEntry domain.PolicyHolder

	holders map[string]*domain.PolicyHolder // keyed by public policyHolderID

	byEmailResult *domain.PolicyHolder
	byEmailErr    error
	byEmailCalls  int
	byEmailLast   string

	byConfirmationResult *domain.PolicyHolder
	byConfirmationErr    error
	byConfirmationCalls  int
}

func newMockHolderRepository() *mockHolderRepository {
	return &mockHolderRepository{holders: map[string]*domain.PolicyHolder{}}
}

func (m *mockHolderRepository) Create(_ context.Context, holder domain.PolicyHolder) error {
	m.createCalls++
	m.createdEntry = holder
	if m.createErr != nil {
		return m.createErr
	}
	copy := holder
	m.holders[holder.PolicyHolderID] = &copy
	return nil
}

func (m *mockHolderRepository) GetByID(context.Context, string) (*domain.PolicyHolder, error) {
	return nil, errors.New("unexpected call: GetByID")
}

func (m *mockHolderRepository) GetByPolicyHolderID(_ context.Context, policyHolderID string) (*domain.PolicyHolder, error) {
	if holder, ok := m.holders[policyHolderID]; ok {
		copy := *holder
		return &copy, nil
	}
	return nil, errNotFoundForTest()
}

func (m *mockHolderRepository) GetByEmail(_ context.Context, email string) (*domain.PolicyHolder, error) {
	m.byEmailCalls++
	m.byEmailLast = email
	if m.byEmailResult != nil {
		copy := *m.byEmailResult
		return &copy, m.byEmailErr
	}
	if m.byEmailErr != nil {
		return nil, m.byEmailErr
	}
	return nil, errNotFoundForTest()
}

func (m *mockHolderRepository) GetByConfirmationID(_ context.Context, _ string) (*domain.PolicyHolder, error) {
	m.byConfirmationCalls++
	if m.byConfirmationResult != nil {
		copy := *m.byConfirmationResult
		return &copy, m.byConfirmationErr
	}
	if m.byConfirmationErr != nil {
		return nil, m.byConfirmationErr
	}
	return nil, errNotFoundForTest()
}

type mockPolicyRepository struct {
	createErr     error
	createCalls   int
	createdPolicy domain.Policy

	byHolderResult *domain.Policy
	byHolderErr    error
	byHolderCalls  int
	byHolderLast   string

	byPolicyIDResult *domain.Policy
	byPolicyIDErr    error
	byPolicyIDCalls  int

	updateStatusErr    error
	updateStatusCalls  int
	updateStatusID     string
	updateStatusStatus domain.PolicyStatus

	setAddressErr   error
	setAddressCalls int
	setAddressID    string
	setAddressValue string
}

func (m *mockPolicyRepository) Create(_ context.Context, policy domain.Policy) error {
	m.createCalls++
	m.createdPolicy = policy
	return m.createErr
}

func (m *mockPolicyRepository) GetByPolicyID(_ context.Context, _ string) (*domain.Policy, error) {
	m.byPolicyIDCalls++
	if m.byPolicyIDResult != nil {
		copy := *m.byPolicyIDResult
		return &copy, m.byPolicyIDErr
	}
	if m.byPolicyIDErr != nil {
		return nil, m.byPolicyIDErr
	}
	return nil, errNotFoundForTest()
}

func (m *mockPolicyRepository) GetByHolderID(_ context.Context, holderID string) (*domain.Policy, error) {
	m.byHolderCalls++
	m.byHolderLast = holderID
	if m.byHolderResult != nil {
		copy := *m.byHolderResult
		return &copy, m.byHolderErr
	}
	if m.byHolderErr != nil {
		return nil, m.byHolderErr
	}
	return nil, errNotFoundForTest()
}

func (m *mockPolicyRepository) UpdateStatus(_ context.Context, id string, status domain.PolicyStatus) error {
	m.updateStatusCalls++
	m.updateStatusID = id
	m.updateStatusStatus = status
	return m.updateStatusErr
}

func (m *mockPolicyRepository) SetEthereumAddress(_ context.Context, id string, address string) error {
	m.setAddressCalls++
	m.setAddressID = id
	m.setAddressValue = address
	return m.setAddressErr
}

type stubTokenIssuer struct {
	issueCalls int
	lastName   string
	lastHolder string
	lastCity   string
	err        error
}

func (s *stubTokenIssuer) Issue(name, policyHolderID, coveredCityName string) (string, error) {
	s.issueCalls++
	s.lastName = name
	s.lastHolder = policyHolderID
	s.lastCity = coveredCityName
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("token-%s", policyHolderID), nil
}

type stubEventPublisher struct {
	holderRegistered int
	policyCreated    int
	policyConfirmed  int
	addressBound     int
}

func (s *stubEventPublisher) PublishPolicyHolderRegistered(context.Context, domain.PolicyHolderRegisteredEvent) error {
	s.holderRegistered++
	return nil
}

func (s *stubEventPublisher) PublishPolicyCreated(context.Context, domain.PolicyCreatedEvent) error {
	s.policyCreated++
	return nil
}

func (s *stubEventPublisher) PublishPolicyConfirmed(context.Context, domain.PolicyConfirmedEvent) error {
	s.policyConfirmed++
	return nil
}

func (s *stubEventPublisher) PublishPayoutAddressBound(context.Context, domain.PayoutAddressBoundEvent) error {
	s.addressBound++
	return nil
}

type stubMailer struct {
	sent chan port.ConfirmationMessage
}

func newStubMailer() *stubMailer {
	return &stubMailer{sent: make(chan port.ConfirmationMessage, 4)}
}

func (s *stubMailer) SendPolicyConfirmation(_ context.Context, msg port.ConfirmationMessage) error {
	s.sent <- msg
	return nil
}

type stubCaptchaVerifier struct {
	verifyCalls int
	lastToken   string
	err         error
}

func (s *stubCaptchaVerifier) Verify(_ context.Context, token string) error {
	s.verifyCalls++
	s.lastToken = token
	return s.err
}
