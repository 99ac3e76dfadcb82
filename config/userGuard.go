package config

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/budgets_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserGuardPlugin scopes queries, updates and deletes to the user id in the
// statement context when the model has a user_id column. Raw SQL is not
// scoped. A context without a user id runs unscoped, as batch tools do.
type UserGuardPlugin struct{}

func NewUserGuardPlugin() *UserGuardPlugin { return &UserGuardPlugin{} }

func (p *UserGuardPlugin) Name() string { return "user_guard" }

func (p *UserGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("user_guard:query", userGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("user_guard:row", userGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("user_guard:update", userGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("user_guard:delete", userGuardCallback); err != nil {
		return err
	}
	return nil
}

func userGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	userId := userIdFromContext(db.Statement.Context)
	if userId <= 0 || db.Statement.Schema == nil {
		return
	}
	if db.Statement.Schema.LookUpField("user_id") == nil {
		return
	}
	// an explicit filter wins
	if whereHasUserId(db.Statement.Clauses["WHERE"]) {
		return
	}
	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: "user_id"},
				Value:  userId,
			},
		},
	})
}

func userIdFromContext(ctx context.Context) int {
	userId, _ := appctx.GetInt(ctx, appctx.ContextKeyUserId)
	return userId
}

func whereHasUserId(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasUserId(e) {
			return true
		}
	}
	return false
}

func exprHasUserId(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsUserId(v.Column)
	case clause.Neq:
		return colIsUserId(v.Column)
	case clause.IN:
		return colIsUserId(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasUserId(x) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasUserId(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), "user_id")
	default:
		return false
	}
}

func colIsUserId(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, "user_id")
	case clause.Column:
		return strings.EqualFold(c.Name, "user_id")
	default:
		return false
	}
}
