package authz

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/psyeval/recruitment/internal/store/model"
	"go.uber.org/zap"
)

//go:embed policy/authz.rego
var policy string

type Action string

const (
	CreateCandidature    Action = "candidature.create"
	AssignPsychologue    Action = "candidature.assign_psychologue"
	AssignTests          Action = "candidature.assign_tests"
	StartEvaluation      Action = "candidature.start"
	CompleteEvaluation   Action = "candidature.complete"
	SubmitForReview      Action = "candidature.submit_for_review"
	DecideCandidature    Action = "candidature.decide"
	ArchiveCandidature   Action = "candidature.archive"
	UpdateCandidature    Action = "candidature.update"
	ReadCandidature      Action = "candidature.read"
	ExportCandidatures   Action = "candidature.export"
	ReviewJobApplication Action = "job_application.review"
	WriteCatalog         Action = "catalog.write"
	ManageLanguages      Action = "language.manage"
	ReadDashboard        Action = "dashboard.read"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role model.Role
}

// Resource carries the attributes of the target the policy looks at.
type Resource struct {
	AssignedPsychologueID *uuid.UUID
}

type Authorizer struct {
	query rego.PreparedEvalQuery
}

func NewAuthorizer() (*Authorizer, error) {
	module, err := ast.ParseModuleWithOpts("authz.rego", policy, ast.ParserOptions{
		RegoVersion: ast.RegoV1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization policy: %w", err)
	}

	compiler := ast.NewCompiler()
	compiler.Compile(map[string]*ast.Module{"authz.rego": module})
	if compiler.Failed() {
		return nil, fmt.Errorf("authorization policy compilation failed: %v", compiler.Errors)
	}

	query, err := rego.New(
		rego.Query("data.recruitment.authz.allow"),
		rego.Compiler(compiler),
		rego.SetRegoVersion(ast.RegoV1),
	).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare authorization query: %w", err)
	}

	return &Authorizer{query: query}, nil
}

// Allowed evaluates the policy. Evaluation errors deny.
func (a *Authorizer) Allowed(ctx context.Context, actor Actor, action Action, resource Resource) (bool, error) {
	input := map[string]any{
		"actor": map[string]any{
			"id":   actor.ID.String(),
			"role": string(actor.Role),
		},
		"action": string(action),
	}
	res := map[string]any{}
	if resource.AssignedPsychologueID != nil {
		res["assigned_psychologue_id"] = resource.AssignedPsychologueID.String()
	}
	input["resource"] = res

	rs, err := a.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		zap.S().Named("authz").Errorw("policy evaluation failed", "action", action, "error", err)
		return false, err
	}
	return rs.Allowed(), nil
}
