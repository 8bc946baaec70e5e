package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	"github.com/tanpawarit/chative-customer-service/agent/conversation"
	nodex "github.com/tanpawarit/chative-customer-service/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/chative-customer-service/agent/state"
)

var (
	ErrInvalidMessage  = nodex.ErrInvalidMessage
	ErrInvalidThread   = nodex.ErrInvalidThread
	ErrInvalidCustomer = nodex.ErrInvalidCustomer
	ErrCustomerChanged = nodex.ErrCustomerChanged
)

// Orchestrator runs one conversational turn per HandleMessage call.
type Orchestrator struct {
	store   statex.Store
	manager *conversation.Manager
	router  contractx.Reasoner

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	store statex.Store,
	manager *conversation.Manager,
	router contractx.Reasoner,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if manager == nil {
		return nil, errors.New("conversation manager is required")
	}
	if router == nil {
		return nil, errors.New("router is required")
	}

	o := &Orchestrator{
		store:   store,
		manager: manager,
		router:  router,
		now:     time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// SetClock replaces the clock used to stamp turns. It must be called before the
// first HandleMessage.
func (o *Orchestrator) SetClock(now func() time.Time) {
	if now != nil {
		o.now = now
	}
}

func (o *Orchestrator) HandleMessage(ctx context.Context, sess contractx.Session, text string) (string, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		ThreadID:   sess.ThreadID,
		CustomerID: sess.CustomerID,
		Text:       text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}
