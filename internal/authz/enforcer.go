// Package authz decides which role may perform which action on which resource group.
// Policies live in the embedded Casbin model and policy files.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Resource groups.
const (
	ObjectCatalog  = "catalog"
	ObjectFeedback = "feedback"
	ObjectProfile  = "profile"
	ObjectUsers    = "users"
)

// Actions.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Authorizer is what handlers, middleware and services depend on.
type Authorizer interface {
	Allowed(role, object, action string) (bool, error)
	CanModify(role, object, action string, actorID, ownerID uuid.UUID) (bool, error)
}

type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	log      *zap.Logger
}

// NewEnforcer loads the embedded model and policy.
func NewEnforcer(log *zap.Logger) (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	return &Enforcer{
		enforcer: enforcer,
		log:      log.With(zap.String("component", "authz")),
	}, nil
}

func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if len(parts) != 4 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("add policy %v: %w", parts[1:], err)
			}
		case "g":
			if len(parts) != 3 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("unknown policy type %q", parts[0])
		}
	}
	return nil
}

// Allowed checks whether role may perform action on object.
func (e *Enforcer) Allowed(role, object, action string) (bool, error) {
	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("enforce %s/%s/%s: %w", role, object, action, err)
	}

	recordDecision(role, object, action, allowed)
	if !allowed {
		e.log.Debug("Authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action))
	}

	return allowed, nil
}

// CanModify applies the ownership rule for update/delete: the "<action>_any"
// permission always passes, "<action>_own" passes only for the author.
func (e *Enforcer) CanModify(role, object, action string, actorID, ownerID uuid.UUID) (bool, error) {
	allowed, err := e.Allowed(role, object, action+"_any")
	if err != nil || allowed {
		return allowed, err
	}

	if actorID == uuid.Nil || actorID != ownerID {
		return false, nil
	}

	return e.Allowed(role, object, action+"_own")
}

// RolesFor returns every role that role inherits, itself excluded.
func (e *Enforcer) RolesFor(role string) ([]string, error) {
	return e.enforcer.GetImplicitRolesForUser(role)
}
