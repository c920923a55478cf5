package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	"github.com/helpdesk/it-helpdesk/internal/repository/memory"
	"github.com/helpdesk/it-helpdesk/internal/service"
)

type directoryTree struct {
	dept *domain.Department
	sub  *domain.SubDepartment
	pos  *domain.Position
	user *domain.User
}

func seedTree(t *testing.T, directory *service.DirectoryService, repos repository.Repositories, name string) directoryTree {
	t.Helper()
	ctx := context.Background()

	dept, err := directory.CreateDepartment(ctx, service.OrgUnitInput{Name: name})
	require.NoError(t, err)
	sub, err := directory.CreateSubDepartment(ctx, service.SubDepartmentInput{
		OrgUnitInput: service.OrgUnitInput{Name: name + " Ops"},
		DepartmentID: dept.ID,
	})
	require.NoError(t, err)
	pos, err := directory.CreatePosition(ctx, service.PositionInput{
		OrgUnitInput:    service.OrgUnitInput{Name: name + " Lead"},
		SubDepartmentID: sub.ID,
	})
	require.NoError(t, err)

	user := seedUser(t, repos, name+"@example.com", domain.RoleStaff)
	user.DepartmentID = &dept.ID
	user.SubDepartmentID = &sub.ID
	user.PositionID = &pos.ID
	require.NoError(t, repos.Users.Update(ctx, user))
	require.NoError(t, directory.AssignDepartmentManager(ctx, dept.ID, user.ID))

	return directoryTree{dept: dept, sub: sub, pos: pos, user: user}
}

func TestDepartmentCRUDAndUniqueness(t *testing.T) {
	store := memory.New()
	directory := service.NewDirectoryService(store.Repositories(), store.TxManager(), zap.NewNop())
	ctx := context.Background()

	dept, err := directory.CreateDepartment(ctx, service.OrgUnitInput{Name: "  Finance  ", Description: "Money"})
	require.NoError(t, err)
	assert.Equal(t, "Finance", dept.Name)

	_, err = directory.CreateDepartment(ctx, service.OrgUnitInput{Name: "FINANCE"})
	requireDomainError(t, err, 409)

	_, err = directory.CreateDepartment(ctx, service.OrgUnitInput{Name: " "})
	requireDomainError(t, err, 400)

	updated, err := directory.UpdateDepartment(ctx, dept.ID, service.OrgUnitInput{Name: "Accounting"})
	require.NoError(t, err)
	assert.Equal(t, "Accounting", updated.Name)

	require.NoError(t, directory.DeleteDepartment(ctx, dept.ID))
	requireDomainError(t, directory.DeleteDepartment(ctx, dept.ID), 404)
}

func TestDeleteDepartmentRefusesWhileReferenced(t *testing.T) {
	store := memory.New()
	repos := store.Repositories()
	directory := service.NewDirectoryService(repos, store.TxManager(), zap.NewNop())
	tree := seedTree(t, directory, repos, "Legal")

	err := directory.DeleteDepartment(context.Background(), tree.dept.ID)
	domainErr := requireDomainError(t, err, 400)
	assert.Contains(t, domainErr.Message, "associated users")

	err = directory.DeleteSubDepartment(context.Background(), tree.sub.ID)
	requireDomainError(t, err, 400)
}

func TestSubDepartmentRequiresExistingDepartment(t *testing.T) {
	store := memory.New()
	directory := service.NewDirectoryService(store.Repositories(), store.TxManager(), zap.NewNop())

	_, err := directory.CreateSubDepartment(context.Background(), service.SubDepartmentInput{
		OrgUnitInput: service.OrgUnitInput{Name: "Orphan"},
		DepartmentID: 404,
	})
	requireDomainError(t, err, 404)
}

func TestManagerAssignment(t *testing.T) {
	store := memory.New()
	repos := store.Repositories()
	directory := service.NewDirectoryService(repos, store.TxManager(), zap.NewNop())
	ctx := context.Background()
	tree := seedTree(t, directory, repos, "HR")

	// one user may manage several units
	require.NoError(t, directory.AssignSubDepartmentManager(ctx, tree.sub.ID, tree.user.ID))
	requireDomainError(t, directory.AssignSubDepartmentManager(ctx, tree.sub.ID, "ghost"), 404)

	require.NoError(t, directory.RemoveDepartmentManager(ctx, tree.dept.ID))
	err := directory.RemoveDepartmentManager(ctx, tree.dept.ID)
	domainErr := requireDomainError(t, err, 400)
	assert.Equal(t, "Department doesn't have a manager assigned.", domainErr.Message)

	candidates, err := directory.AvailableManagers(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "HR", candidates[0].Department)
}

func TestBulkDeleteCascadesAndSkipsUnknownIDs(t *testing.T) {
	store := memory.New()
	repos := store.Repositories()
	directory := service.NewDirectoryService(repos, store.TxManager(), zap.NewNop())
	ctx := context.Background()
	a := seedTree(t, directory, repos, "Alpha")
	b := seedTree(t, directory, repos, "Bravo")
	keep := seedTree(t, directory, repos, "Keep")

	result, err := directory.BulkDeleteDepartments(ctx, []int64{a.dept.ID, 9999, b.dept.ID, a.dept.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.dept.ID, b.dept.ID}, result.Deleted)
	assert.Equal(t, []int64{9999}, result.Skipped)

	for _, tree := range []directoryTree{a, b} {
		_, err := repos.Departments.GetByID(ctx, tree.dept.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = repos.SubDepartments.GetByID(ctx, tree.sub.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = repos.Positions.GetByID(ctx, tree.pos.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		user, err := repos.Users.GetByID(ctx, tree.user.ID)
		require.NoError(t, err)
		assert.Nil(t, user.DepartmentID)
		assert.Nil(t, user.SubDepartmentID)
		assert.Nil(t, user.PositionID)
	}

	_, err = repos.Departments.GetByID(ctx, keep.dept.ID)
	require.NoError(t, err)

	_, err = directory.BulkDeleteDepartments(ctx, nil)
	requireDomainError(t, err, 400)
}

// failingTx runs the real transaction but breaks the delete of one position inside it.
type failingTx struct {
	inner      repository.TxManager
	positionID int64
}

type failingPositions struct {
	repository.PositionRepository
	positionID int64
}

func (p failingPositions) Delete(ctx context.Context, id int64) error {
	if id == p.positionID {
		return errors.New("disk full")
	}
	return p.PositionRepository.Delete(ctx, id)
}

func (f failingTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return f.inner.RunInTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Positions = failingPositions{PositionRepository: repos.Positions, positionID: f.positionID}
		return fn(ctx, repos)
	})
}

func TestBulkDeleteRollsBackEveryDepartmentOnFailure(t *testing.T) {
	store := memory.New()
	repos := store.Repositories()
	seeder := service.NewDirectoryService(repos, store.TxManager(), zap.NewNop())
	a := seedTree(t, seeder, repos, "Ops")
	b := seedTree(t, seeder, repos, "Sales")

	directory := service.NewDirectoryService(repos, failingTx{inner: store.TxManager(), positionID: b.pos.ID}, zap.NewNop())
	_, err := directory.BulkDeleteDepartments(context.Background(), []int64{a.dept.ID, b.dept.ID})
	domainErr := requireDomainError(t, err, 500)
	assert.Equal(t, "An unexpected error occurred.", domainErr.Message)

	ctx := context.Background()
	for _, tree := range []directoryTree{a, b} {
		dept, err := repos.Departments.GetByID(ctx, tree.dept.ID)
		require.NoError(t, err, tree.dept.Name)
		assert.NotNil(t, dept.ManagerID)
		_, err = repos.SubDepartments.GetByID(ctx, tree.sub.ID)
		require.NoError(t, err)
		_, err = repos.Positions.GetByID(ctx, tree.pos.ID)
		require.NoError(t, err)

		user, err := repos.Users.GetByID(ctx, tree.user.ID)
		require.NoError(t, err)
		assert.Equal(t, &tree.dept.ID, user.DepartmentID)
		assert.Equal(t, &tree.sub.ID, user.SubDepartmentID)
		assert.Equal(t, &tree.pos.ID, user.PositionID)
	}
}

func TestPositionLifecycle(t *testing.T) {
	store := memory.New()
	repos := store.Repositories()
	directory := service.NewDirectoryService(repos, store.TxManager(), zap.NewNop())
	ctx := context.Background()
	tree := seedTree(t, directory, repos, "IT")

	inactive := false
	updated, err := directory.UpdatePosition(ctx, tree.pos.ID, service.PositionInput{
		OrgUnitInput:    service.OrgUnitInput{Name: "Senior Lead"},
		SubDepartmentID: tree.sub.ID,
		IsActive:        &inactive,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = directory.CreatePosition(ctx, service.PositionInput{
		OrgUnitInput:    service.OrgUnitInput{Name: "senior lead"},
		SubDepartmentID: tree.sub.ID,
	})
	requireDomainError(t, err, 409)

	require.NoError(t, directory.DeletePosition(ctx, tree.pos.ID))
	user, err := repos.Users.GetByID(ctx, tree.user.ID)
	require.NoError(t, err)
	assert.Nil(t, user.PositionID)

	requireDomainError(t, directory.DeletePosition(ctx, tree.pos.ID), 404)
}
