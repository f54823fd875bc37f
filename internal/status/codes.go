package status

// Engine status codes. The set is owned by the engine and versioned with it;
// values mirror the engine's return codes exactly.
const (
	Success                             Code = 0
	CodeEndOfData                       Code = 1
	CodeUnknownError                    Code = -1
	CodeOperationNotPermitted           Code = -2
	CodeNoSuchFileOrDirectory           Code = -3
	CodeNoSuchProcess                   Code = -4
	CodeInterruptedFunctionCall         Code = -5
	CodeInputOutputError                Code = -6
	CodeNoSuchDeviceOrAddress           Code = -7
	CodeArgListTooLong                  Code = -8
	CodeExecFormatError                 Code = -9
	CodeBadFileDescriptor               Code = -10
	CodeNoChildProcesses                Code = -11
	CodeResourceTemporarilyUnavailable  Code = -12
	CodeNotEnoughSpace                  Code = -13
	CodePermissionDenied                Code = -14
	CodeBadAddress                      Code = -15
	CodeResourceBusy                    Code = -16
	CodeFileExists                      Code = -17
	CodeImproperLink                    Code = -18
	CodeNoSuchDevice                    Code = -19
	CodeNotADirectory                   Code = -20
	CodeIsADirectory                    Code = -21
	CodeInvalidArgument                 Code = -22
	CodeTooManyOpenFilesInSystem        Code = -23
	CodeTooManyOpenFiles                Code = -24
	CodeInappropriateIOControlOperation Code = -25
	CodeFileTooLarge                    Code = -26
	CodeNoSpaceLeftOnDevice             Code = -27
	CodeInvalidSeek                     Code = -28
	CodeReadOnlyFileSystem              Code = -29
	CodeTooManyLinks                    Code = -30
	CodeBrokenPipe                      Code = -31
	CodeDomainError                     Code = -32
	CodeResultTooLarge                  Code = -33
	CodeResourceDeadlockAvoided         Code = -34
	CodeNoMemoryAvailable               Code = -35
	CodeFilenameTooLong                 Code = -36
	CodeNoLocksAvailable                Code = -37
	CodeFunctionNotImplemented          Code = -38
	CodeDirectoryNotEmpty               Code = -39
	CodeIllegalByteSequence             Code = -40
	CodeSocketNotInitialized            Code = -41
	CodeOperationWouldBlock             Code = -42
	CodeAddressIsNotAvailable           Code = -43
	CodeNetworkIsDown                   Code = -44
	CodeNoBuffer                        Code = -45
	CodeSocketIsAlreadyConnected        Code = -46
	CodeSocketIsNotConnected            Code = -47
	CodeSocketIsAlreadyShutdowned       Code = -48
	CodeOperationTimeout                Code = -49
	CodeConnectionRefused               Code = -50
	CodeRangeError                      Code = -51
	CodeTokenizerError                  Code = -52
	CodeFileCorrupt                     Code = -53
	CodeInvalidFormat                   Code = -54
	CodeObjectCorrupt                   Code = -55
	CodeTooManySymbolicLinks            Code = -56
	CodeNotSocket                       Code = -57
	CodeOperationNotSupported           Code = -58
	CodeAddressIsInUse                  Code = -59
	CodeZLibError                       Code = -60
	CodeLZ4Error                        Code = -61
	CodeStackOverFlow                   Code = -62
	CodeSyntaxError                     Code = -63
	CodeRetryMax                        Code = -64
	CodeIncompatibleFileFormat          Code = -65
	CodeUpdateNotAllowed                Code = -66
	CodeTooSmallOffset                  Code = -67
	CodeTooLargeOffset                  Code = -68
	CodeTooSmallLimit                   Code = -69
	CodeCASError                        Code = -70
	CodeUnsupportedCommandVersion       Code = -71
	CodeNormalizerError                 Code = -72
	CodeTokenFilterError                Code = -73
	CodeCommandError                    Code = -74
	CodePluginError                     Code = -75
	CodeScorerError                     Code = -76
	CodeCancel                          Code = -77
	CodeWindowFunctionError             Code = -78
	CodeZstdError                       Code = -79
	CodeConnectionReset                 Code = -80
)

// Taxonomy leaves, one per non-success status code.
const (
	KindEndOfData Kind = iota + 1
	KindUnknownError
	KindOperationNotPermitted
	KindNoSuchFileOrDirectory
	KindNoSuchProcess
	KindInterruptedFunctionCall
	KindInputOutputError
	KindNoSuchDeviceOrAddress
	KindArgListTooLong
	KindExecFormatError
	KindBadFileDescriptor
	KindNoChildProcesses
	KindResourceTemporarilyUnavailable
	KindNotEnoughSpace
	KindPermissionDenied
	KindBadAddress
	KindResourceBusy
	KindFileExists
	KindImproperLink
	KindNoSuchDevice
	KindNotADirectory
	KindIsADirectory
	KindInvalidArgument
	KindTooManyOpenFilesInSystem
	KindTooManyOpenFiles
	KindInappropriateIOControlOperation
	KindFileTooLarge
	KindNoSpaceLeftOnDevice
	KindInvalidSeek
	KindReadOnlyFileSystem
	KindTooManyLinks
	KindBrokenPipe
	KindDomainError
	KindResultTooLarge
	KindResourceDeadlockAvoided
	KindNoMemoryAvailable
	KindFilenameTooLong
	KindNoLocksAvailable
	KindFunctionNotImplemented
	KindDirectoryNotEmpty
	KindIllegalByteSequence
	KindSocketNotInitialized
	KindOperationWouldBlock
	KindAddressIsNotAvailable
	KindNetworkIsDown
	KindNoBuffer
	KindSocketIsAlreadyConnected
	KindSocketIsNotConnected
	KindSocketIsAlreadyShutdowned
	KindOperationTimeout
	KindConnectionRefused
	KindRangeError
	KindTokenizerError
	KindFileCorrupt
	KindInvalidFormat
	KindObjectCorrupt
	KindTooManySymbolicLinks
	KindNotSocket
	KindOperationNotSupported
	KindAddressIsInUse
	KindZLibError
	KindLZ4Error
	KindStackOverFlow
	KindSyntaxError
	KindRetryMax
	KindIncompatibleFileFormat
	KindUpdateNotAllowed
	KindTooSmallOffset
	KindTooLargeOffset
	KindTooSmallLimit
	KindCASError
	KindUnsupportedCommandVersion
	KindNormalizerError
	KindTokenFilterError
	KindCommandError
	KindPluginError
	KindScorerError
	KindCancel
	KindWindowFunctionError
	KindZstdError
	KindConnectionReset

	kindCount = iota
)

// kinds is indexed by Kind. Entry 0 is unused so the zero Kind stays invalid.
var kinds = [kindCount + 1]kindInfo{
	KindEndOfData:                       {code: CodeEndOfData, name: "EndOfData", text: "end of data", group: GroupData},
	KindUnknownError:                    {code: CodeUnknownError, name: "UnknownError", text: "unknown error", group: GroupSystem},
	KindOperationNotPermitted:           {code: CodeOperationNotPermitted, name: "OperationNotPermitted", text: "operation not permitted", group: GroupSystem},
	KindNoSuchFileOrDirectory:           {code: CodeNoSuchFileOrDirectory, name: "NoSuchFileOrDirectory", text: "no such file or directory", group: GroupSystem},
	KindNoSuchProcess:                   {code: CodeNoSuchProcess, name: "NoSuchProcess", text: "no such process", group: GroupSystem},
	KindInterruptedFunctionCall:         {code: CodeInterruptedFunctionCall, name: "InterruptedFunctionCall", text: "interrupted function call", group: GroupSystem},
	KindInputOutputError:                {code: CodeInputOutputError, name: "InputOutputError", text: "input output error", group: GroupSystem},
	KindNoSuchDeviceOrAddress:           {code: CodeNoSuchDeviceOrAddress, name: "NoSuchDeviceOrAddress", text: "no such device or address", group: GroupSystem},
	KindArgListTooLong:                  {code: CodeArgListTooLong, name: "ArgListTooLong", text: "arg list too long", group: GroupSystem},
	KindExecFormatError:                 {code: CodeExecFormatError, name: "ExecFormatError", text: "exec format error", group: GroupSystem},
	KindBadFileDescriptor:               {code: CodeBadFileDescriptor, name: "BadFileDescriptor", text: "bad file descriptor", group: GroupSystem},
	KindNoChildProcesses:                {code: CodeNoChildProcesses, name: "NoChildProcesses", text: "no child processes", group: GroupSystem},
	KindResourceTemporarilyUnavailable:  {code: CodeResourceTemporarilyUnavailable, name: "ResourceTemporarilyUnavailable", text: "resource temporarily unavailable", group: GroupSystem},
	KindNotEnoughSpace:                  {code: CodeNotEnoughSpace, name: "NotEnoughSpace", text: "not enough space", group: GroupSystem},
	KindPermissionDenied:                {code: CodePermissionDenied, name: "PermissionDenied", text: "permission denied", group: GroupSystem},
	KindBadAddress:                      {code: CodeBadAddress, name: "BadAddress", text: "bad address", group: GroupSystem},
	KindResourceBusy:                    {code: CodeResourceBusy, name: "ResourceBusy", text: "resource busy", group: GroupSystem},
	KindFileExists:                      {code: CodeFileExists, name: "FileExists", text: "file exists", group: GroupSystem},
	KindImproperLink:                    {code: CodeImproperLink, name: "ImproperLink", text: "improper link", group: GroupSystem},
	KindNoSuchDevice:                    {code: CodeNoSuchDevice, name: "NoSuchDevice", text: "no such device", group: GroupSystem},
	KindNotADirectory:                   {code: CodeNotADirectory, name: "NotADirectory", text: "not a directory", group: GroupSystem},
	KindIsADirectory:                    {code: CodeIsADirectory, name: "IsADirectory", text: "is a directory", group: GroupSystem},
	KindInvalidArgument:                 {code: CodeInvalidArgument, name: "InvalidArgument", text: "invalid argument", group: GroupSystem},
	KindTooManyOpenFilesInSystem:        {code: CodeTooManyOpenFilesInSystem, name: "TooManyOpenFilesInSystem", text: "too many open files in system", group: GroupSystem},
	KindTooManyOpenFiles:                {code: CodeTooManyOpenFiles, name: "TooManyOpenFiles", text: "too many open files", group: GroupSystem},
	KindInappropriateIOControlOperation: {code: CodeInappropriateIOControlOperation, name: "InappropriateIOControlOperation", text: "inappropriate I/O control operation", group: GroupSystem},
	KindFileTooLarge:                    {code: CodeFileTooLarge, name: "FileTooLarge", text: "file too large", group: GroupSystem},
	KindNoSpaceLeftOnDevice:             {code: CodeNoSpaceLeftOnDevice, name: "NoSpaceLeftOnDevice", text: "no space left on device", group: GroupSystem},
	KindInvalidSeek:                     {code: CodeInvalidSeek, name: "InvalidSeek", text: "invalid seek", group: GroupSystem},
	KindReadOnlyFileSystem:              {code: CodeReadOnlyFileSystem, name: "ReadOnlyFileSystem", text: "read only file system", group: GroupSystem},
	KindTooManyLinks:                    {code: CodeTooManyLinks, name: "TooManyLinks", text: "too many links", group: GroupSystem},
	KindBrokenPipe:                      {code: CodeBrokenPipe, name: "BrokenPipe", text: "broken pipe", group: GroupSystem},
	KindDomainError:                     {code: CodeDomainError, name: "DomainError", text: "domain error", group: GroupSystem},
	KindResultTooLarge:                  {code: CodeResultTooLarge, name: "ResultTooLarge", text: "result too large", group: GroupSystem},
	KindResourceDeadlockAvoided:         {code: CodeResourceDeadlockAvoided, name: "ResourceDeadlockAvoided", text: "resource deadlock avoided", group: GroupConcurrency},
	KindNoMemoryAvailable:               {code: CodeNoMemoryAvailable, name: "NoMemoryAvailable", text: "no memory available", group: GroupSystem},
	KindFilenameTooLong:                 {code: CodeFilenameTooLong, name: "FilenameTooLong", text: "filename too long", group: GroupSystem},
	KindNoLocksAvailable:                {code: CodeNoLocksAvailable, name: "NoLocksAvailable", text: "no locks available", group: GroupConcurrency},
	KindFunctionNotImplemented:          {code: CodeFunctionNotImplemented, name: "FunctionNotImplemented", text: "function not implemented", group: GroupSystem},
	KindDirectoryNotEmpty:               {code: CodeDirectoryNotEmpty, name: "DirectoryNotEmpty", text: "directory not empty", group: GroupSystem},
	KindIllegalByteSequence:             {code: CodeIllegalByteSequence, name: "IllegalByteSequence", text: "illegal byte sequence", group: GroupFormat},
	KindSocketNotInitialized:            {code: CodeSocketNotInitialized, name: "SocketNotInitialized", text: "socket not initialized", group: GroupNetwork},
	KindOperationWouldBlock:             {code: CodeOperationWouldBlock, name: "OperationWouldBlock", text: "operation would block", group: GroupNetwork},
	KindAddressIsNotAvailable:           {code: CodeAddressIsNotAvailable, name: "AddressIsNotAvailable", text: "address is not available", group: GroupNetwork},
	KindNetworkIsDown:                   {code: CodeNetworkIsDown, name: "NetworkIsDown", text: "network is down", group: GroupNetwork},
	KindNoBuffer:                        {code: CodeNoBuffer, name: "NoBuffer", text: "no buffer", group: GroupNetwork},
	KindSocketIsAlreadyConnected:        {code: CodeSocketIsAlreadyConnected, name: "SocketIsAlreadyConnected", text: "socket is already connected", group: GroupNetwork},
	KindSocketIsNotConnected:            {code: CodeSocketIsNotConnected, name: "SocketIsNotConnected", text: "socket is not connected", group: GroupNetwork},
	KindSocketIsAlreadyShutdowned:       {code: CodeSocketIsAlreadyShutdowned, name: "SocketIsAlreadyShutdowned", text: "socket is already shutdowned", group: GroupNetwork},
	KindOperationTimeout:                {code: CodeOperationTimeout, name: "OperationTimeout", text: "operation timeout", group: GroupConcurrency},
	KindConnectionRefused:               {code: CodeConnectionRefused, name: "ConnectionRefused", text: "connection refused", group: GroupNetwork},
	KindRangeError:                      {code: CodeRangeError, name: "RangeError", text: "range error", group: GroupQuery},
	KindTokenizerError:                  {code: CodeTokenizerError, name: "TokenizerError", text: "tokenizer error", group: GroupSubsystem},
	KindFileCorrupt:                     {code: CodeFileCorrupt, name: "FileCorrupt", text: "file corrupt", group: GroupFormat},
	KindInvalidFormat:                   {code: CodeInvalidFormat, name: "InvalidFormat", text: "invalid format", group: GroupFormat},
	KindObjectCorrupt:                   {code: CodeObjectCorrupt, name: "ObjectCorrupt", text: "object corrupt", group: GroupFormat},
	KindTooManySymbolicLinks:            {code: CodeTooManySymbolicLinks, name: "TooManySymbolicLinks", text: "too many symbolic links", group: GroupSystem},
	KindNotSocket:                       {code: CodeNotSocket, name: "NotSocket", text: "not socket", group: GroupNetwork},
	KindOperationNotSupported:           {code: CodeOperationNotSupported, name: "OperationNotSupported", text: "operation not supported", group: GroupSystem},
	KindAddressIsInUse:                  {code: CodeAddressIsInUse, name: "AddressIsInUse", text: "address is in use", group: GroupNetwork},
	KindZLibError:                       {code: CodeZLibError, name: "ZLibError", text: "zlib error", group: GroupCompression},
	KindLZ4Error:                        {code: CodeLZ4Error, name: "LZ4Error", text: "LZ4 error", group: GroupCompression},
	KindStackOverFlow:                   {code: CodeStackOverFlow, name: "StackOverFlow", text: "stack over flow", group: GroupQuery},
	KindSyntaxError:                     {code: CodeSyntaxError, name: "SyntaxError", text: "syntax error", group: GroupQuery},
	KindRetryMax:                        {code: CodeRetryMax, name: "RetryMax", text: "retry max", group: GroupConcurrency},
	KindIncompatibleFileFormat:          {code: CodeIncompatibleFileFormat, name: "IncompatibleFileFormat", text: "incompatible file format", group: GroupFormat},
	KindUpdateNotAllowed:                {code: CodeUpdateNotAllowed, name: "UpdateNotAllowed", text: "update not allowed", group: GroupQuery},
	KindTooSmallOffset:                  {code: CodeTooSmallOffset, name: "TooSmallOffset", text: "too small offset", group: GroupQuery},
	KindTooLargeOffset:                  {code: CodeTooLargeOffset, name: "TooLargeOffset", text: "too large offset", group: GroupQuery},
	KindTooSmallLimit:                   {code: CodeTooSmallLimit, name: "TooSmallLimit", text: "too small limit", group: GroupQuery},
	KindCASError:                        {code: CodeCASError, name: "CASError", text: "CAS error", group: GroupConcurrency},
	KindUnsupportedCommandVersion:       {code: CodeUnsupportedCommandVersion, name: "UnsupportedCommandVersion", text: "unsupported command version", group: GroupSubsystem},
	KindNormalizerError:                 {code: CodeNormalizerError, name: "NormalizerError", text: "normalizer error", group: GroupSubsystem},
	KindTokenFilterError:                {code: CodeTokenFilterError, name: "TokenFilterError", text: "token filter error", group: GroupSubsystem},
	KindCommandError:                    {code: CodeCommandError, name: "CommandError", text: "command error", group: GroupSubsystem},
	KindPluginError:                     {code: CodePluginError, name: "PluginError", text: "plugin error", group: GroupSubsystem},
	KindScorerError:                     {code: CodeScorerError, name: "ScorerError", text: "scorer error", group: GroupSubsystem},
	KindCancel:                          {code: CodeCancel, name: "Cancel", text: "cancel", group: GroupConcurrency},
	KindWindowFunctionError:             {code: CodeWindowFunctionError, name: "WindowFunctionError", text: "window function error", group: GroupSubsystem},
	KindZstdError:                       {code: CodeZstdError, name: "ZstdError", text: "zstd error", group: GroupCompression},
	KindConnectionReset:                 {code: CodeConnectionReset, name: "ConnectionReset", text: "connection reset", group: GroupNetwork},
}
