package auth

// Effect - итог политики
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Параметры документа политики API Gateway
const (
	PolicyVersion = "2012-10-17"
	ActionInvoke  = "execute-api:Invoke"
)

// Statement - одно правило политики
type Statement struct {
	Action   string `json:"Action"`
	Effect   Effect `json:"Effect"`
	Resource string `json:"Resource"`
}

// PolicyDocument - документ политики, ограниченный одним ресурсом
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Decision - единственный результат авторизации запроса.
// После возврата шлюзу не изменяется.
type Decision struct {
	PrincipalID    string          `json:"principalId"`
	Effect         Effect          `json:"-"`
	PolicyDocument *PolicyDocument `json:"policyDocument,omitempty"`
}

// AllowedResource возвращает ресурс из первого разрешающего правила или ""
func (d *Decision) AllowedResource() string {
	if d == nil || d.PolicyDocument == nil {
		return ""
	}
	for _, st := range d.PolicyDocument.Statement {
		if st.Effect == EffectAllow {
			return st.Resource
		}
	}
	return ""
}

// Allows проверяет, что решение явно разрешает вызов именно этого ресурса.
// Решение без правил ничего не разрешает.
func (d *Decision) Allows(resource string) bool {
	if d == nil || d.Effect != EffectAllow || resource == "" {
		return false
	}
	return d.AllowedResource() == resource
}

// RenderDecision строит разрешающее решение для ресурса.
// Если ресурс не указан, возвращается решение без правил: рендерер не
// придумывает и не отвергает ресурс, за него отвечает оркестратор.
func RenderDecision(principalID, resource string) *Decision {
	d := &Decision{
		PrincipalID: principalID,
		Effect:      EffectAllow,
	}
	if resource != "" {
		d.PolicyDocument = &PolicyDocument{
			Version: PolicyVersion,
			Statement: []Statement{
				{
					Action:   ActionInvoke,
					Effect:   EffectAllow,
					Resource: resource,
				},
			},
		}
	}
	return d
}
