package rule

import (
	"context"

	"github.com/google/cel-go/cel"
	"github.com/rs/zerolog/log"

	"saregare/internal/pkg/bootstrap"
	"saregare/internal/service/checkout/domain/port"
)

// CELPromotionEngine 把 yaml 里配置的促销规则编译成 CEL 程序，
// 实现结账侧的 PromotionEngine 端口。规则表达式可以引用
// buyer_id / product_id / genre / tier / amount 五个变量。
//
// 规则求值永远不阻断结账：编译失败的规则在启动时被丢弃，
// 运行期求值出错的规则按未命中处理。
type CELPromotionEngine struct {
	rules []compiledRule
}

type compiledRule struct {
	name     string
	discount int64
	program  cel.Program
}

// NewCELPromotionEngine 编译规则列表。所有规则都编译失败也不报错，
// 引擎退化为"无促销"。
func NewCELPromotionEngine(rules []bootstrap.PromotionRule) (*CELPromotionEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("buyer_id", cel.StringType),
		cel.Variable("product_id", cel.StringType),
		cel.Variable("genre", cel.StringType),
		cel.Variable("tier", cel.StringType),
		cel.Variable("amount", cel.IntType),
	)
	if err != nil {
		return nil, err
	}

	engine := &CELPromotionEngine{}
	for _, r := range rules {
		ast, issues := env.Compile(r.Expr)
		if issues != nil && issues.Err() != nil {
			log.Warn().Str("rule", r.Name).Err(issues.Err()).Msg("skipping promotion rule with invalid expression")
			continue
		}
		if ast.OutputType() != cel.BoolType {
			log.Warn().Str("rule", r.Name).Msg("skipping promotion rule: expression is not boolean")
			continue
		}
		program, err := env.Program(ast)
		if err != nil {
			log.Warn().Str("rule", r.Name).Err(err).Msg("skipping promotion rule that failed to plan")
			continue
		}
		engine.rules = append(engine.rules, compiledRule{
			name:     r.Name,
			discount: r.DiscountPaise,
			program:  program,
		})
	}
	return engine, nil
}

// Discount 按配置顺序求值，第一条命中的规则生效。
func (e *CELPromotionEngine) Discount(ctx context.Context, fact port.CheckoutFact) (int64, string) {
	vars := map[string]interface{}{
		"buyer_id":   fact.BuyerID,
		"product_id": fact.ProductID,
		"genre":      fact.Genre,
		"tier":       fact.Tier,
		"amount":     fact.Amount,
	}
	for _, r := range e.rules {
		out, _, err := r.program.ContextEval(ctx, vars)
		if err != nil {
			log.Warn().Str("rule", r.name).Err(err).Msg("promotion rule evaluation failed")
			continue
		}
		if matched, ok := out.Value().(bool); ok && matched {
			return r.discount, r.name
		}
	}
	return 0, ""
}
