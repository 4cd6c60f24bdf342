package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Baaaki/role-admin/internal/access"
	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/repository"
	"github.com/Baaaki/role-admin/internal/service"
	"github.com/Baaaki/role-admin/internal/session"
	"github.com/Baaaki/role-admin/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ServiceIntegrationTestSuite runs the services against SQLite and miniredis.
type ServiceIntegrationTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis
	sessions  *session.Manager

	auth   *service.AuthService
	users  *service.UserService
	roles  *service.RoleService
	orders *service.OrderService
	audit  *service.AuditService

	ctx context.Context
}

func (s *ServiceIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.testRedis = testutil.SetupTestRedis(s.T())

	userRepo := repository.NewUserRepository(s.testDB.DB)
	roleRepo := repository.NewRoleRepository(s.testDB.DB)
	orderRepo := repository.NewOrderRepository(s.testDB.DB)
	auditRepo := repository.NewAuditRepository(s.testDB.DB)

	s.sessions = session.NewManager(session.NewRedisStore(s.testRedis.Client, time.Hour), "test-secret-key")
	s.auth = service.NewAuthService(userRepo, s.sessions)
	s.users = service.NewUserService(userRepo, roleRepo)
	s.roles = service.NewRoleService(roleRepo)
	s.orders = service.NewOrderService(orderRepo)
	s.audit = service.NewAuditService(auditRepo, 2)
}

func (s *ServiceIntegrationTestSuite) TearDownSuite() {
	s.testRedis.Teardown(s.T())
	s.testDB.Teardown(s.T())
}

func (s *ServiceIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.testRedis.Server.FlushAll()
}

func (s *ServiceIntegrationTestSuite) admin() access.Principal {
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "root", models.RoleAdmin)
	return testutil.PrincipalFor(u, models.RoleAdmin)
}

func (s *ServiceIntegrationTestSuite) editor() access.Principal {
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "editor", models.RoleEditor)
	return testutil.PrincipalFor(u, models.RoleEditor)
}

// --- registration and login ---

func (s *ServiceIntegrationTestSuite) TestRegister_AssignsViewerOnly() {
	user, err := s.auth.Register(s.ctx, service.RegisterInput{
		Username: "  newuser ",
		Password: "SecurePass123",
	})
	s.Require().NoError(err)
	s.Equal("newuser", user.Username)
	s.Equal(models.StatusActive, user.Status)

	roles, err := repository.NewUserRepository(s.testDB.DB).RoleNames(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal([]string{models.RoleViewer}, roles)
}

func (s *ServiceIntegrationTestSuite) TestRegister_DuplicateUsername() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "existing", models.RoleViewer)

	_, err := s.auth.Register(s.ctx, service.RegisterInput{Username: "existing", Password: "SecurePass123"})
	s.ErrorIs(err, service.ErrUsernameTaken)
	s.ErrorIs(err, apperr.ErrConstraintViolation)
}

func (s *ServiceIntegrationTestSuite) TestRegister_InvalidInput() {
	testCases := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "SecurePass123"},
		{"empty password", "validname", ""},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.auth.Register(s.ctx, service.RegisterInput{Username: tc.username, Password: tc.password})
			s.ErrorIs(err, apperr.ErrInvalidInput)
		})
	}
}

func (s *ServiceIntegrationTestSuite) TestLogin_Success() {
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer, models.RoleEditor)

	p, token, err := s.auth.Login(s.ctx, "alice", testutil.TestPassword)
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.Equal(u.ID, p.UserID)
	s.Equal([]string{models.RoleEditor, models.RoleViewer}, p.Roles)

	resolved := s.sessions.Resolve(s.ctx, token)
	s.Equal(p, resolved)
}

func (s *ServiceIntegrationTestSuite) TestLogin_FailureReasons() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)
	testutil.CreateTestUserWithStatus(s.T(), s.testDB.DB, "banned", models.StatusBanned, models.RoleViewer)

	testCases := []struct {
		name     string
		username string
		password string
		wantErr  error
		reason   string
	}{
		{"unknown user", "nobody", testutil.TestPassword, service.ErrUserNotFound, service.ReasonNotFound},
		{"wrong password", "alice", "wrong", service.ErrBadCredential, service.ReasonBadCredential},
		{"banned with correct password", "banned", testutil.TestPassword, service.ErrUserBanned, service.ReasonBanned},
		{"banned with wrong password", "banned", "wrong", service.ErrUserBanned, service.ReasonBanned},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			p, token, err := s.auth.Login(s.ctx, tc.username, tc.password)
			s.ErrorIs(err, tc.wantErr)
			s.Equal(tc.reason, service.FailureReason(err))
			s.Empty(token)
			s.False(p.IsAuthenticated())
		})
	}
}

func (s *ServiceIntegrationTestSuite) TestLogout_EndsSession() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)
	_, token, err := s.auth.Login(s.ctx, "alice", testutil.TestPassword)
	s.Require().NoError(err)

	s.Require().NoError(s.auth.Logout(s.ctx, token))
	s.False(s.sessions.Resolve(s.ctx, token).IsAuthenticated())
}

// Roles are read once at login: a grant is invisible to an existing session.
func (s *ServiceIntegrationTestSuite) TestRoleGrant_RequiresNewLogin() {
	admin := s.admin()
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)

	_, oldToken, err := s.auth.Login(s.ctx, "alice", testutil.TestPassword)
	s.Require().NoError(err)

	_, err = s.users.UpdateUser(s.ctx, admin, u.ID, service.UpdateUserInput{
		FirstName: "Alice",
		Status:    "ACTIVE",
		Roles:     []string{models.RoleViewer, models.RoleEditor},
	})
	s.Require().NoError(err)

	stale := s.sessions.Resolve(s.ctx, oldToken)
	s.Equal([]string{models.RoleViewer}, stale.Roles)
	_, err = s.orders.SetOrderStatus(s.ctx, stale, 1, "SHIPPED")
	s.ErrorIs(err, apperr.ErrForbidden)

	fresh, _, err := s.auth.Login(s.ctx, "alice", testutil.TestPassword)
	s.Require().NoError(err)
	s.True(fresh.HasRole(models.RoleEditor))
}

// A ban blocks the next login but leaves issued sessions alone.
func (s *ServiceIntegrationTestSuite) TestBan_BlocksLoginKeepsSession() {
	admin := s.admin()
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)

	_, token, err := s.auth.Login(s.ctx, "alice", testutil.TestPassword)
	s.Require().NoError(err)

	s.Require().NoError(s.users.SetStatus(s.ctx, admin, u.ID, models.StatusBanned))
	// banning twice is a no-op
	s.Require().NoError(s.users.SetStatus(s.ctx, admin, u.ID, models.StatusBanned))

	_, _, err = s.auth.Login(s.ctx, "alice", testutil.TestPassword)
	s.ErrorIs(err, service.ErrUserBanned)
	s.True(s.sessions.Resolve(s.ctx, token).IsAuthenticated())

	s.Require().NoError(s.users.SetStatus(s.ctx, admin, u.ID, models.StatusActive))
	_, _, err = s.auth.Login(s.ctx, "alice", testutil.TestPassword)
	s.NoError(err)
}

// --- users ---

func (s *ServiceIntegrationTestSuite) TestListUsers_Scoping() {
	viewer := testutil.CreateTestUser(s.T(), s.testDB.DB, "viewer", models.RoleViewer)
	editor := s.editor()
	admin := s.admin()

	users, err := s.users.ListUsers(s.ctx, testutil.PrincipalFor(viewer, models.RoleViewer))
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal(viewer.ID, users[0].ID)

	for _, p := range []access.Principal{editor, admin} {
		users, err = s.users.ListUsers(s.ctx, p)
		s.Require().NoError(err)
		s.Len(users, 3)
	}

	_, err = s.users.ListUsers(s.ctx, access.Anonymous)
	s.ErrorIs(err, apperr.ErrUnauthorized)
}

func (s *ServiceIntegrationTestSuite) TestGetUser_IncludesAvailableRoles() {
	admin := s.admin()
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)

	detail, err := s.users.GetUser(s.ctx, admin, u.ID)
	s.Require().NoError(err)
	s.Equal([]string{models.RoleViewer}, detail.CurrentRoles)
	s.ElementsMatch([]string{models.RoleAdmin, models.RoleEditor, models.RoleViewer}, detail.AvailableRoles)

	_, err = s.users.GetUser(s.ctx, admin, 9999)
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.users.GetUser(s.ctx, s.editor(), u.ID)
	s.ErrorIs(err, apperr.ErrForbidden)
}

func (s *ServiceIntegrationTestSuite) TestCreateUser_DefaultsToViewer() {
	admin := s.admin()

	user, err := s.users.CreateUser(s.ctx, admin, service.CreateUserInput{
		Username: "bob",
		Password: "SecurePass123",
		Metadata: map[string]interface{}{"team": "ops"},
	})
	s.Require().NoError(err)
	s.Equal(models.StatusActive, user.Status)
	s.Equal([]string{models.RoleViewer}, user.RoleNames())
	s.Equal("ops", user.Metadata["team"])

	_, err = s.users.CreateUser(s.ctx, admin, service.CreateUserInput{Username: "bob", Password: "x1234567"})
	s.ErrorIs(err, service.ErrUsernameTaken)
}

func (s *ServiceIntegrationTestSuite) TestCreateUser_UnknownRoleRollsBack() {
	admin := s.admin()

	_, err := s.users.CreateUser(s.ctx, admin, service.CreateUserInput{
		Username: "bob",
		Password: "SecurePass123",
		Roles:    []string{"SUPERUSER"},
	})
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = repository.NewUserRepository(s.testDB.DB).GetByUsername(s.ctx, "bob")
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *ServiceIntegrationTestSuite) TestUpdateUser_ReplacesRolesIdempotently() {
	admin := s.admin()
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)

	in := service.UpdateUserInput{
		FirstName: "Alice",
		LastName:  "Smith",
		Status:    "active",
		Metadata:  map[string]interface{}{"vip": true},
		Roles:     []string{models.RoleEditor},
	}
	for i := 0; i < 2; i++ {
		updated, err := s.users.UpdateUser(s.ctx, admin, u.ID, in)
		s.Require().NoError(err)
		s.Equal("Alice", updated.FirstName)
		s.Equal(models.StatusActive, updated.Status)
		s.Equal([]string{models.RoleEditor}, updated.RoleNames())
		s.True(updated.IsVIP())
	}

	// an empty role list strips every role
	in.Roles = nil
	updated, err := s.users.UpdateUser(s.ctx, admin, u.ID, in)
	s.Require().NoError(err)
	s.Empty(updated.Roles)
}

func (s *ServiceIntegrationTestSuite) TestUpdateUser_UnknownRoleRollsBack() {
	admin := s.admin()
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)

	_, err := s.users.UpdateUser(s.ctx, admin, u.ID, service.UpdateUserInput{
		FirstName: "Changed",
		Status:    "ACTIVE",
		Roles:     []string{models.RoleEditor, "SUPERUSER"},
	})
	s.ErrorIs(err, apperr.ErrNotFound)

	stored, err := repository.NewUserRepository(s.testDB.DB).GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("Test", stored.FirstName)
	s.Equal([]string{models.RoleViewer}, stored.RoleNames())
}

func (s *ServiceIntegrationTestSuite) TestUpdateUser_Rejections() {
	admin := s.admin()
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)
	in := service.UpdateUserInput{Status: "ACTIVE", Roles: []string{models.RoleViewer}}

	_, err := s.users.UpdateUser(s.ctx, access.Anonymous, u.ID, in)
	s.ErrorIs(err, apperr.ErrUnauthorized)

	_, err = s.users.UpdateUser(s.ctx, s.editor(), u.ID, in)
	s.ErrorIs(err, apperr.ErrForbidden)

	_, err = s.users.UpdateUser(s.ctx, admin, 9999, in)
	s.ErrorIs(err, apperr.ErrNotFound)

	in.Status = "SUSPENDED"
	_, err = s.users.UpdateUser(s.ctx, admin, u.ID, in)
	s.ErrorIs(err, apperr.ErrInvalidInput)
}

func (s *ServiceIntegrationTestSuite) TestSetStatus_UnknownUser() {
	err := s.users.SetStatus(s.ctx, s.admin(), 9999, models.StatusBanned)
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *ServiceIntegrationTestSuite) TestVIP_SetAndClear() {
	admin := s.admin()
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)
	userRepo := repository.NewUserRepository(s.testDB.DB)

	s.Require().NoError(s.users.SetVIP(s.ctx, admin, u.ID, true))
	stored, err := userRepo.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.True(stored.IsVIP())

	s.Require().NoError(s.users.SetVIP(s.ctx, admin, u.ID, false))
	stored, err = userRepo.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.False(stored.IsVIP())
	_, present := stored.Metadata[models.MetadataVIP]
	s.False(present)

	err = s.users.SetVIP(s.ctx, testutil.PrincipalFor(u, models.RoleViewer), u.ID, true)
	s.ErrorIs(err, apperr.ErrForbidden)
}

func (s *ServiceIntegrationTestSuite) TestUpdateProfile_PreservesVIP() {
	admin := s.admin()
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)
	self := testutil.PrincipalFor(u, models.RoleViewer)
	s.Require().NoError(s.users.SetVIP(s.ctx, admin, u.ID, true))

	updated, err := s.users.UpdateProfile(s.ctx, self, service.ProfileInput{
		FirstName: "Alice",
		LastName:  "Smith",
		Metadata:  map[string]interface{}{"vip": false, "theme": "dark"},
	})
	s.Require().NoError(err)
	s.Equal("Alice", updated.FirstName)
	s.True(updated.IsVIP())
	s.Equal("dark", updated.Metadata["theme"])
}

func (s *ServiceIntegrationTestSuite) TestUpdateProfile_CannotGrantVIP() {
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)
	self := testutil.PrincipalFor(u, models.RoleViewer)

	updated, err := s.users.UpdateProfile(s.ctx, self, service.ProfileInput{
		FirstName: "Alice",
		Metadata:  map[string]interface{}{"vip": true},
	})
	s.Require().NoError(err)
	s.False(updated.IsVIP())

	profile, err := s.users.GetProfile(s.ctx, self)
	s.Require().NoError(err)
	s.Equal(u.ID, profile.ID)
}

// --- roles ---

func (s *ServiceIntegrationTestSuite) TestCreateRole() {
	admin := s.admin()

	role, err := s.roles.CreateRole(s.ctx, admin, " auditor ", "reads the audit log")
	s.Require().NoError(err)
	s.Equal("AUDITOR", role.Name)

	_, err = s.roles.CreateRole(s.ctx, admin, "auditor", "")
	s.ErrorIs(err, apperr.ErrConstraintViolation)

	_, err = s.roles.CreateRole(s.ctx, admin, "   ", "")
	s.ErrorIs(err, apperr.ErrInvalidInput)

	_, err = s.roles.CreateRole(s.ctx, s.editor(), "OTHER", "")
	s.ErrorIs(err, apperr.ErrForbidden)

	roles, err := s.roles.ListRoles(s.ctx, admin)
	s.Require().NoError(err)
	s.Len(roles, 4)
}

// Starting without an EDITOR role: create it, register alice, ban and unban her.
func (s *ServiceIntegrationTestSuite) TestScenario_RoleCreationAndBanCycle() {
	admin := s.admin()
	s.Require().NoError(s.testDB.DB.Where("role_name = ?", models.RoleEditor).Delete(&models.Role{}).Error)

	_, err := s.roles.CreateRole(s.ctx, admin, "EDITOR", "order editors")
	s.Require().NoError(err)
	roles, err := s.roles.ListRoles(s.ctx, admin)
	s.Require().NoError(err)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	s.Contains(names, models.RoleEditor)

	alice, err := s.auth.Register(s.ctx, service.RegisterInput{Username: "alice", Password: "correct-pw"})
	s.Require().NoError(err)

	s.Require().NoError(s.users.SetStatus(s.ctx, admin, alice.ID, models.StatusBanned))
	_, _, err = s.auth.Login(s.ctx, "alice", "correct-pw")
	s.Equal(service.ReasonBanned, service.FailureReason(err))

	s.Require().NoError(s.users.SetStatus(s.ctx, admin, alice.ID, models.StatusActive))
	p, _, err := s.auth.Login(s.ctx, "alice", "correct-pw")
	s.Require().NoError(err)
	s.Equal([]string{models.RoleViewer}, p.Roles)
}

// --- orders ---

func (s *ServiceIntegrationTestSuite) TestCreateOrder() {
	u := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)
	self := testutil.PrincipalFor(u, models.RoleViewer)

	order, err := s.orders.CreateOrder(s.ctx, self, 19.99)
	s.Require().NoError(err)
	s.Equal(u.ID, order.UserID)
	s.Nil(order.StatusID)
	s.Equal("", order.StatusName())

	_, err = s.orders.CreateOrder(s.ctx, self, -1)
	s.ErrorIs(err, apperr.ErrInvalidInput)

	_, err = s.orders.CreateOrder(s.ctx, access.Anonymous, 5)
	s.ErrorIs(err, apperr.ErrUnauthorized)
}

func (s *ServiceIntegrationTestSuite) TestListOrders_Scoping() {
	alice := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)
	bob := testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", models.RoleViewer)
	testutil.CreateTestOrder(s.T(), s.testDB.DB, alice.ID, 10, "")
	testutil.CreateTestOrder(s.T(), s.testDB.DB, bob.ID, 20, "SHIPPED")

	orders, err := s.orders.ListOrders(s.ctx, testutil.PrincipalFor(alice, models.RoleViewer))
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(alice.ID, orders[0].UserID)

	orders, err = s.orders.ListOrders(s.ctx, s.editor())
	s.Require().NoError(err)
	s.Require().Len(orders, 2)
	s.Equal("", orders[0].StatusName())
	s.Equal("SHIPPED", orders[1].StatusName())
	s.Equal("bob", orders[1].User.Username)
}

func (s *ServiceIntegrationTestSuite) TestSetOrderStatus() {
	alice := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)
	order := testutil.CreateTestOrder(s.T(), s.testDB.DB, alice.ID, 10, "CREATED")
	editor := s.editor()

	_, err := s.orders.SetOrderStatus(s.ctx, testutil.PrincipalFor(alice, models.RoleViewer), order.ID, "SHIPPED")
	s.ErrorIs(err, apperr.ErrForbidden)

	updated, err := s.orders.SetOrderStatus(s.ctx, editor, order.ID, "SHIPPED")
	s.Require().NoError(err)
	s.Equal("SHIPPED", updated.StatusName())

	// any status may follow any other
	updated, err = s.orders.SetOrderStatus(s.ctx, editor, order.ID, "CREATED")
	s.Require().NoError(err)
	s.Equal("CREATED", updated.StatusName())
}

func (s *ServiceIntegrationTestSuite) TestSetOrderStatus_UnknownStatusLeavesOrder() {
	alice := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleViewer)
	order := testutil.CreateTestOrder(s.T(), s.testDB.DB, alice.ID, 10, "CREATED")
	admin := s.admin()

	_, err := s.orders.SetOrderStatus(s.ctx, admin, order.ID, "LOST")
	s.ErrorIs(err, apperr.ErrUnknownStatus)

	stored, err := repository.NewOrderRepository(s.testDB.DB).GetByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal("CREATED", stored.StatusName())

	_, err = s.orders.SetOrderStatus(s.ctx, admin, 9999, "SHIPPED")
	s.ErrorIs(err, apperr.ErrNotFound)

	statuses, err := s.orders.ListStatuses(s.ctx, admin)
	s.Require().NoError(err)
	s.Len(statuses, 5)
}

// --- audit ---

func (s *ServiceIntegrationTestSuite) TestListAuditLog_AdminOnlyNewestFirst() {
	base := time.Now().UTC().Add(-time.Hour)
	for i, op := range []string{"INSERT", "UPDATE", "DELETE"} {
		entry := models.AuditLogEntry{
			Table:     "users",
			Operation: op,
			ChangedBy: "root",
			ChangedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(s.T(), s.testDB.DB.Create(&entry).Error)
	}

	entries, err := s.audit.ListAuditLog(s.ctx, s.admin())
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("DELETE", entries[0].Operation)
	s.Equal("UPDATE", entries[1].Operation)

	_, err = s.audit.ListAuditLog(s.ctx, s.editor())
	s.ErrorIs(err, apperr.ErrForbidden)
}

func TestServiceIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceIntegrationTestSuite))
}

func TestFailureReason_OtherErrors(t *testing.T) {
	assert.Equal(t, "", service.FailureReason(nil))
	assert.Equal(t, "", service.FailureReason(apperr.ErrStorageUnavailable))
}
