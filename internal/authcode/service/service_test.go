package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kiosk/internal/authcode/generator"
	"kiosk/internal/authcode/models"
	"kiosk/internal/authcode/registry"
	"kiosk/internal/directory"
	"kiosk/internal/notify"
	"kiosk/internal/token"
	dErrors "kiosk/pkg/domain-errors"
	"kiosk/pkg/platform/sentinel"
)

// failingDirectory wraps the in-memory store and fails SetChatID on demand.
type failingDirectory struct {
	*directory.InMemory
	failSetChatID bool
	setChatCalls  int
	lastUserID    models.UserID
	lastChatID    models.ChatID
}

func (f *failingDirectory) SetChatID(ctx context.Context, id models.UserID, chatID models.ChatID) error {
	f.setChatCalls++
	f.lastUserID = id
	f.lastChatID = chatID
	if f.failSetChatID {
		return errors.New("connection reset")
	}
	return f.InMemory.SetChatID(ctx, id, chatID)
}

type CoordinatorSuite struct {
	suite.Suite
	ctx      context.Context
	registry *registry.InMemory
	users    *failingDirectory
	notifier *notify.InMemory
	svc      *Service
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.registry = registry.NewInMemory(generator.New().Code, 5*time.Minute)
	s.users = &failingDirectory{InMemory: directory.NewInMemory()}
	s.notifier = notify.NewInMemory()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc, err := New(s.registry, s.users, s.notifier, token.NewService("test-key", "kiosk"),
		WithLogger(logger),
		WithBlockingNotify(),
		WithFailureLimit(3, time.Minute),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

// addUser creates a directory user; chatID 0 means not yet linked.
func (s *CoordinatorSuite) addUser(phone string, chatID models.ChatID) *directory.User {
	user, err := s.users.Create(s.ctx, &directory.User{
		FirstName: "Ivan",
		LastName:  "Sidorov",
		Phone:     phone,
		Address:   "Mira 5",
	})
	s.Require().NoError(err)
	if chatID != 0 {
		s.Require().NoError(s.users.InMemory.SetChatID(s.ctx, user.ID, chatID))
		user.TelegramChatID = chatID
	}
	return user
}

func (s *CoordinatorSuite) activeCodeFor(userID models.UserID) (models.Code, bool) {
	active, err := s.registry.Active(s.ctx)
	s.Require().NoError(err)
	for code, uid := range active {
		if uid == userID {
			return code, true
		}
	}
	return 0, false
}

func (s *CoordinatorSuite) TestIssueRegistersBeforeNotifying() {
	user := s.addUser("+70000000001", 500)

	code, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err)

	pending, err := s.registry.Lookup(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(user.ID, pending.UserID)

	messages := s.notifier.Messages()
	s.Require().Len(messages, 1)
	s.Equal(models.ChatID(500), messages[0].ChatID)
	s.Contains(messages[0].Text, code.String())
}

func (s *CoordinatorSuite) TestIssueForUnlinkedUserSkipsDelivery() {
	user := s.addUser("+70000000001", 0)

	code, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.NotZero(code)
	s.Empty(s.notifier.Messages(), "nothing to push without a linked chat")
}

func (s *CoordinatorSuite) TestIssueUnknownUser() {
	_, err := s.svc.IssueCodeForUser(s.ctx, 999)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *CoordinatorSuite) TestNotificationFailureDoesNotFailIssuance() {
	user := s.addUser("+70000000001", 500)
	s.notifier.FailWith = errors.New("telegram unreachable")

	code, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err, "issuance succeeds even when the channel is down")

	// The code still exists and can be relayed out-of-band.
	_, err = s.registry.Lookup(s.ctx, code)
	s.Require().NoError(err)
}

// Scenario A: issue for a user, verify with the correct code, entry consumed.
func (s *CoordinatorSuite) TestChannelVerifyFirstLink() {
	user := s.addUser("+70000000001", 0)

	code, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err)

	result, err := s.svc.VerifyFromChannel(s.ctx, code.String(), 777)
	s.Require().NoError(err)
	s.Equal(models.VerifyOK, result.Status)
	s.Equal(user.ID, result.UserID)

	// Scenario C: the binding happened exactly once with the right args.
	s.Equal(1, s.users.setChatCalls)
	s.Equal(user.ID, s.users.lastUserID)
	s.Equal(models.ChatID(777), s.users.lastChatID)

	linked, err := s.users.FindByChatID(s.ctx, 777)
	s.Require().NoError(err)
	s.Equal(user.ID, linked.ID)

	_, err = s.registry.Lookup(s.ctx, code)
	s.Require().ErrorIs(err, sentinel.ErrNotFound, "code must be consumed")
}

func (s *CoordinatorSuite) TestChannelVerifyAlreadyLinkedSkipsDirectoryWrite() {
	user := s.addUser("+70000000001", 777)

	code, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err)

	result, err := s.svc.VerifyFromChannel(s.ctx, code.String(), 777)
	s.Require().NoError(err)
	s.Equal(models.VerifyOK, result.Status)
	s.Equal(0, s.users.setChatCalls, "no directory mutation when identity already bound")
}

func (s *CoordinatorSuite) TestChannelVerifyInvalidFormatLeavesRegistryAlone() {
	user := s.addUser("+70000000001", 0)
	code, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err)

	for _, input := range []string{"abcd", "12a4", "", "12345", "999"} {
		result, err := s.svc.VerifyFromChannel(s.ctx, input, 777)
		s.Require().NoError(err)
		s.Equal(models.VerifyInvalidFormat, result.Status, "input %q", input)
	}

	_, err = s.registry.Lookup(s.ctx, code)
	s.Require().NoError(err, "registry unchanged by unparseable input")
}

// Scenario B: mismatch removes the original code and issues a replacement.
func (s *CoordinatorSuite) TestChannelMismatchReissuesForLinkedSubject() {
	user := s.addUser("+70000000001", 500)

	code, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err)

	wrong := models.Code(int(code)%9000 + 1000)
	if wrong == code {
		wrong = code + 1
	}
	result, err := s.svc.VerifyFromChannel(s.ctx, wrong.String(), 500)
	s.Require().NoError(err)
	s.Equal(models.VerifyMismatch, result.Status)

	_, err = s.registry.Lookup(s.ctx, code)
	s.Require().ErrorIs(err, sentinel.ErrNotFound, "proven-wrong code must be discarded")

	replacement, ok := s.activeCodeFor(user.ID)
	s.Require().True(ok, "a replacement code must be active for the subject")

	// The replacement arrived over the channel and is redeemable.
	messages := s.notifier.Messages()
	s.Require().Len(messages, 2, "original push plus reissue push")
	s.Contains(messages[1].Text, replacement.String())

	verify, err := s.svc.VerifyFromChannel(s.ctx, replacement.String(), 500)
	s.Require().NoError(err)
	s.Equal(models.VerifyOK, verify.Status)
}

func (s *CoordinatorSuite) TestChannelMismatchForUnknownChatJustFails() {
	result, err := s.svc.VerifyFromChannel(s.ctx, "4821", 31337)
	s.Require().NoError(err)
	s.Equal(models.VerifyMismatch, result.Status)

	active, err := s.registry.Active(s.ctx)
	s.Require().NoError(err)
	s.Empty(active, "nothing to reissue for an unlinked chat")
}

func (s *CoordinatorSuite) TestRepeatedMismatchesLockTheSubject() {
	user := s.addUser("+70000000001", 500)

	_, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err)

	// Limit is 3: two mismatches reissue, the third locks.
	for i := 0; i < 2; i++ {
		result, err := s.svc.VerifyFromChannel(s.ctx, "1023", 500)
		s.Require().NoError(err)
		s.Equal(models.VerifyMismatch, result.Status)
	}

	result, err := s.svc.VerifyFromChannel(s.ctx, "1023", 500)
	s.Require().NoError(err)
	s.Equal(models.VerifyLocked, result.Status)

	// Success resets the window: verify the outstanding replacement code.
	code, ok := s.activeCodeFor(user.ID)
	s.Require().True(ok)
	verify, err := s.svc.VerifyFromChannel(s.ctx, code.String(), 500)
	s.Require().NoError(err)
	s.Equal(models.VerifyOK, verify.Status)
	s.False(s.svc.failures.locked(user.ID, time.Now()))
}

func (s *CoordinatorSuite) TestDirectoryFailureRetainsCode() {
	user := s.addUser("+70000000001", 0)

	code, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err)

	s.users.failSetChatID = true
	_, err = s.svc.VerifyFromChannel(s.ctx, code.String(), 777)
	s.Require().Error(err, "persistence failure must not be masked as success")
	s.True(dErrors.Is(err, dErrors.CodeInternal))

	// The valid code was not burned; the user may retry without regenerating.
	_, err = s.registry.Lookup(s.ctx, code)
	s.Require().NoError(err)

	s.users.failSetChatID = false
	result, err := s.svc.VerifyFromChannel(s.ctx, code.String(), 777)
	s.Require().NoError(err)
	s.Equal(models.VerifyOK, result.Status)
}

func (s *CoordinatorSuite) TestTerminalVerifyMintsSession() {
	user := s.addUser("+70000000001", 500)

	code, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err)

	result, err := s.svc.VerifyFromTerminal(s.ctx, code.String())
	s.Require().NoError(err)
	s.Equal(models.VerifyOK, result.Status)
	s.Equal(user.ID, result.UserID)
	s.NotEmpty(result.SessionToken)

	claims, err := token.NewService("test-key", "kiosk").Validate(result.SessionToken)
	s.Require().NoError(err)
	s.Equal(token.RoleUser, claims.Role)

	_, err = s.registry.Lookup(s.ctx, code)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CoordinatorSuite) TestTerminalVerifyMismatchAndFormat() {
	result, err := s.svc.VerifyFromTerminal(s.ctx, "4821")
	s.Require().NoError(err)
	s.Equal(models.VerifyMismatch, result.Status)

	result, err = s.svc.VerifyFromTerminal(s.ctx, "not-a-code")
	s.Require().NoError(err)
	s.Equal(models.VerifyInvalidFormat, result.Status)
}

func (s *CoordinatorSuite) TestRemoveCode() {
	user := s.addUser("+70000000001", 0)
	code, err := s.svc.IssueCodeForUser(s.ctx, user.ID)
	s.Require().NoError(err)

	removed, err := s.svc.RemoveCode(s.ctx, code)
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.svc.RemoveCode(s.ctx, code)
	s.Require().NoError(err)
	s.False(removed)
}

func (s *CoordinatorSuite) TestActiveCodesSnapshot() {
	u1 := s.addUser("+70000000001", 0)
	u2 := s.addUser("+70000000002", 0)

	c1, err := s.svc.IssueCodeForUser(s.ctx, u1.ID)
	s.Require().NoError(err)
	c2, err := s.svc.IssueCodeForUser(s.ctx, u2.ID)
	s.Require().NoError(err)

	active, err := s.svc.ActiveCodes(s.ctx)
	s.Require().NoError(err)
	s.Len(active, 2)
	s.Equal(u1.ID, active[c1])
	s.Equal(u2.ID, active[c2])
}
