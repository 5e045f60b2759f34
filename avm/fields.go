package avm

import "fmt"

// TxnField identifies a transaction field readable with OpTxn / OpTxna.
// Index values match the AVM reference implementation's field table.
type TxnField uint8

const (
	TxnSender            TxnField = 0
	TxnFee               TxnField = 1
	TxnFirstValid        TxnField = 2
	TxnLastValid         TxnField = 4
	TxnNote              TxnField = 5
	TxnLease             TxnField = 6
	TxnReceiver          TxnField = 7
	TxnAmount            TxnField = 8
	TxnCloseRemainderTo  TxnField = 9
	TxnTypeEnum          TxnField = 16
	TxnXferAsset         TxnField = 17
	TxnAssetAmount       TxnField = 18
	TxnAssetReceiver     TxnField = 20
	TxnGroupIndex        TxnField = 22
	TxnTxID              TxnField = 23
	TxnApplicationID     TxnField = 24
	TxnOnCompletion      TxnField = 25
	TxnApplicationArgs   TxnField = 26
	TxnNumAppArgs        TxnField = 27
	TxnAccounts          TxnField = 28
	TxnNumAccounts       TxnField = 29
	TxnApprovalProgram   TxnField = 30
	TxnClearStateProgram TxnField = 31
	TxnRekeyTo           TxnField = 32
	TxnAssets            TxnField = 49
	TxnNumAssets         TxnField = 50
	TxnApplications      TxnField = 51
	TxnNumApplications   TxnField = 52
)

var txnFieldNames = map[TxnField]string{
	TxnSender:            "Sender",
	TxnFee:               "Fee",
	TxnFirstValid:        "FirstValid",
	TxnLastValid:         "LastValid",
	TxnNote:              "Note",
	TxnLease:             "Lease",
	TxnReceiver:          "Receiver",
	TxnAmount:            "Amount",
	TxnCloseRemainderTo:  "CloseRemainderTo",
	TxnTypeEnum:          "TypeEnum",
	TxnXferAsset:         "XferAsset",
	TxnAssetAmount:       "AssetAmount",
	TxnAssetReceiver:     "AssetReceiver",
	TxnGroupIndex:        "GroupIndex",
	TxnTxID:              "TxID",
	TxnApplicationID:     "ApplicationID",
	TxnOnCompletion:      "OnCompletion",
	TxnApplicationArgs:   "ApplicationArgs",
	TxnNumAppArgs:        "NumAppArgs",
	TxnAccounts:          "Accounts",
	TxnNumAccounts:       "NumAccounts",
	TxnApprovalProgram:   "ApprovalProgram",
	TxnClearStateProgram: "ClearStateProgram",
	TxnRekeyTo:           "RekeyTo",
	TxnAssets:            "Assets",
	TxnNumAssets:         "NumAssets",
	TxnApplications:      "Applications",
	TxnNumApplications:   "NumApplications",
}

func (f TxnField) String() string {
	if name, ok := txnFieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("txn_field_%d", uint8(f))
}

// GlobalField identifies a field readable with OpGlobal. Index values match
// the AVM reference implementation's field table.
type GlobalField uint8

const (
	GlobalMinTxnFee                 GlobalField = 0
	GlobalMinBalance                GlobalField = 1
	GlobalMaxTxnLife                GlobalField = 2
	GlobalZeroAddress               GlobalField = 3
	GlobalGroupSize                 GlobalField = 4
	GlobalLogicSigVersion           GlobalField = 5
	GlobalRound                     GlobalField = 6
	GlobalLatestTimestamp           GlobalField = 7
	GlobalCurrentApplicationID      GlobalField = 8
	GlobalCreatorAddress            GlobalField = 9
	GlobalCurrentApplicationAddress GlobalField = 10
	GlobalGroupID                   GlobalField = 11
)

var globalFieldNames = map[GlobalField]string{
	GlobalMinTxnFee:                 "MinTxnFee",
	GlobalMinBalance:                "MinBalance",
	GlobalMaxTxnLife:                "MaxTxnLife",
	GlobalZeroAddress:               "ZeroAddress",
	GlobalGroupSize:                 "GroupSize",
	GlobalLogicSigVersion:           "LogicSigVersion",
	GlobalRound:                     "Round",
	GlobalLatestTimestamp:           "LatestTimestamp",
	GlobalCurrentApplicationID:      "CurrentApplicationID",
	GlobalCreatorAddress:            "CreatorAddress",
	GlobalCurrentApplicationAddress: "CurrentApplicationAddress",
	GlobalGroupID:                   "GroupID",
}

func (f GlobalField) String() string {
	if name, ok := globalFieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("global_field_%d", uint8(f))
}
