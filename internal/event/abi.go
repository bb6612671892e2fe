package event

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const launchpadABI = `[
	{"type":"event","name":"CampaignAdded","inputs":[
		{"name":"campaign","type":"address","indexed":true},
		{"name":"token","type":"address","indexed":true},
		{"name":"creator","type":"address","indexed":true}]},
	{"type":"event","name":"CampaignLocked","inputs":[
		{"name":"campaign","type":"address","indexed":true},
		{"name":"token","type":"address","indexed":true},
		{"name":"amountLocked","type":"uint256","indexed":false}]},
	{"type":"event","name":"CampaignUnlocked","inputs":[
		{"name":"campaign","type":"address","indexed":true},
		{"name":"token","type":"address","indexed":true}]},
	{"type":"event","name":"CampaignRefunded","inputs":[
		{"name":"campaign","type":"address","indexed":true}]},
	{"type":"event","name":"TokensBought","inputs":[
		{"name":"buyer","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"TokensWithdrawn","inputs":[
		{"name":"participant","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"FundsWithdrawn","inputs":[
		{"name":"participant","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"TokenLocked","inputs":[
		{"name":"lockId","type":"uint256","indexed":true},
		{"name":"token","type":"address","indexed":true},
		{"name":"owner","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"TokenUnlocked","inputs":[
		{"name":"lockId","type":"uint256","indexed":true},
		{"name":"token","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"OwnerChanged","inputs":[
		{"name":"lockId","type":"uint256","indexed":true},
		{"name":"oldOwner","type":"address","indexed":false},
		{"name":"newOwner","type":"address","indexed":false}]}
]`

var parsedABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(launchpadABI))
	if err != nil {
		panic(fmt.Sprintf("invalid launchpad ABI: %v", err))
	}
	return parsed
}

// Decoded 解码后的日志
type Decoded struct {
	Name    string
	Address common.Address
	Fields  map[string]interface{}
}

func addressTopic(a common.Address) common.Hash { return common.BytesToHash(a.Bytes()) }

func idTopic(id uint64) common.Hash { return common.BigToHash(new(big.Int).SetUint64(id)) }

// Encode 按 ABI 将事件编码为日志
func Encode(e Event) (types.Log, error) {
	ev, ok := parsedABI.Events[e.Name()]
	if !ok {
		return types.Log{}, fmt.Errorf("event %s not in ABI", e.Name())
	}

	var indexed []common.Hash
	var data []interface{}
	switch v := e.(type) {
	case CampaignAdded:
		indexed = []common.Hash{addressTopic(v.Campaign), addressTopic(v.Token), addressTopic(v.Creator)}
	case CampaignLocked:
		indexed = []common.Hash{addressTopic(v.Campaign), addressTopic(v.Token)}
		data = []interface{}{v.AmountLocked}
	case CampaignUnlocked:
		indexed = []common.Hash{addressTopic(v.Campaign), addressTopic(v.Token)}
	case CampaignRefunded:
		indexed = []common.Hash{addressTopic(v.Campaign)}
	case TokensBought:
		indexed = []common.Hash{addressTopic(v.Buyer)}
		data = []interface{}{v.Amount}
	case TokensWithdrawn:
		indexed = []common.Hash{addressTopic(v.Participant)}
		data = []interface{}{v.Amount}
	case FundsWithdrawn:
		indexed = []common.Hash{addressTopic(v.Participant)}
		data = []interface{}{v.Amount}
	case TokenLocked:
		indexed = []common.Hash{idTopic(v.LockID), addressTopic(v.Token), addressTopic(v.Owner)}
		data = []interface{}{v.Amount}
	case TokenUnlocked:
		indexed = []common.Hash{idTopic(v.LockID), addressTopic(v.Token)}
		data = []interface{}{v.Amount}
	case OwnerChanged:
		indexed = []common.Hash{idTopic(v.LockID)}
		data = []interface{}{v.OldOwner, v.NewOwner}
	default:
		return types.Log{}, fmt.Errorf("unsupported event type %T", e)
	}

	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return types.Log{}, fmt.Errorf("pack %s: %w", e.Name(), err)
	}

	return types.Log{
		Address: e.Source(),
		Topics:  append([]common.Hash{ev.ID}, indexed...),
		Data:    packed,
	}, nil
}

// Decode 解码日志
func Decode(l types.Log) (*Decoded, error) {
	if len(l.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}
	ev, err := parsedABI.EventByID(l.Topics[0])
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if err := ev.Inputs.UnpackIntoMap(fields, l.Data); err != nil {
		return nil, fmt.Errorf("unpack %s data: %w", ev.Name, err)
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, l.Topics[1:]); err != nil {
		return nil, fmt.Errorf("parse %s topics: %w", ev.Name, err)
	}

	return &Decoded{Name: ev.Name, Address: l.Address, Fields: fields}, nil
}
